package approval

import (
	"time"

	"go-approval/internal/common/models"
	"go-approval/internal/features/rule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Line is one participant slot in a request's chain. Lines are embedded
// in the request document so a decision can check and mutate both the
// request pointer and the line status in one conditional update.
type Line struct {
	LineOrder  int               `bson:"line_order" json:"line_order"`
	ApproverID string            `bson:"approver_id" json:"approver_id"`
	LineType   models.LineType   `bson:"line_type" json:"line_type"`
	IsRequired bool              `bson:"is_required" json:"is_required"`
	Status     models.LineStatus `bson:"status" json:"status"`
	Comment    string            `bson:"comment,omitempty" json:"comment,omitempty"`
	// AutoRuleID is set when a rule resolved this line at submission.
	AutoRuleID string     `bson:"auto_rule_id,omitempty" json:"auto_rule_id,omitempty"`
	ActedAt    *time.Time `bson:"acted_at,omitempty" json:"acted_at,omitempty"`
}

// Actionable reports whether this line can hold the request pointer.
func (l Line) Actionable() bool {
	return l.IsRequired && l.LineType.Blocking() && l.Status == models.LineStatusPending
}

// AppliedRule records one rule directive consumed during resolution.
// Kept on the request so a skipped line is still auditable after the
// dense renumbering removed it.
type AppliedRule struct {
	RuleID     string      `bson:"rule_id" json:"rule_id"`
	RuleName   string      `bson:"rule_name" json:"rule_name"`
	Action     rule.Action `bson:"action" json:"action"`
	ApproverID string      `bson:"approver_id" json:"approver_id"`
	Note       string      `bson:"note" json:"note"`
}

type Request struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DocumentNumber string             `bson:"document_number,omitempty" json:"document_number,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Content        string             `bson:"content,omitempty" json:"content,omitempty"`
	CategoryID     string             `bson:"category_id" json:"category_id"`
	// Amount is caller-supplied for rule matching only; the engine
	// never computes it.
	Amount      *int64               `bson:"amount,omitempty" json:"amount,omitempty"`
	RequesterID string               `bson:"requester_id" json:"requester_id"`
	Status      models.RequestStatus `bson:"status" json:"status"`
	// CurrentLineOrder points at the active required line while the
	// request is pending. It never decreases.
	CurrentLineOrder int `bson:"current_line_order" json:"current_line_order"`
	// CurrentApproverID denormalizes the active line's approver so the
	// pending-count projection is a single filter.
	CurrentApproverID string        `bson:"current_approver_id,omitempty" json:"current_approver_id,omitempty"`
	Lines             []Line        `bson:"lines" json:"lines"`
	AppliedRules      []AppliedRule `bson:"applied_rules,omitempty" json:"applied_rules,omitempty"`
	SubmittedAt       *time.Time    `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	CompletedAt       *time.Time    `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt         time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `bson:"updated_at" json:"updated_at"`
}

// LineAt returns the line holding the given order, or nil.
func (r *Request) LineAt(order int) *Line {
	for i := range r.Lines {
		if r.Lines[i].LineOrder == order {
			return &r.Lines[i]
		}
	}
	return nil
}

// Summary is the per-user outstanding-work projection.
type Summary struct {
	PendingCount   int64 `json:"pending_count"`
	RequestedCount int64 `json:"requested_count"`
	ApprovedCount  int64 `json:"approved_count"`
	RejectedCount  int64 `json:"rejected_count"`
	DraftCount     int64 `json:"draft_count"`
}
