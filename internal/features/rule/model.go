package rule

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is what a matched rule does to an approval line. The set is
// closed; adding a kind means touching IsValid and the resolver switch.
type Action string

const (
	ActionAutoApprove Action = "auto_approve"
	ActionSkipStep    Action = "skip_step"
	ActionNotifyOnly  Action = "notify_only"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionAutoApprove, ActionSkipStep, ActionNotifyOnly:
		return true
	}
	return false
}

// Conditions is the predicate of a rule. Every declared condition must
// hold for the rule to match; absent fields are wildcards.
type Conditions struct {
	// MaxAmount is an inclusive upper bound. A request without an
	// amount never satisfies a declared MaxAmount.
	MaxAmount   *int64 `bson:"max_amount,omitempty" json:"maxAmount,omitempty"`
	CategoryID  string `bson:"category_id,omitempty" json:"categoryId,omitempty"`
	RequesterID string `bson:"requester_id,omitempty" json:"requesterId,omitempty"`
}

// Empty reports whether the rule declares no condition at all, i.e. it
// matches every request.
func (c Conditions) Empty() bool {
	return c.MaxAmount == nil && c.CategoryID == "" && c.RequesterID == ""
}

type Rule struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Conditions  Conditions         `bson:"conditions" json:"conditions"`
	Action      Action             `bson:"action" json:"action"`
	Priority    int                `bson:"priority" json:"priority"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	// IsGlobal marks a zero-condition rule; flagged at creation as
	// high risk because it matches every request.
	IsGlobal  bool      `bson:"is_global" json:"is_global"`
	CreatedBy string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
