package models

// Shared approval-engine enums. They live here because both the
// orgchart chain lookup and the approval feature speak in these terms.

// LineType distinguishes deciding lines from informational ones.
//   - approval: holds a decision, blocks progression
//   - review: holds a decision, blocks progression
//   - reference: informational only, never blocks
type LineType string

const (
	LineTypeApproval  LineType = "approval"
	LineTypeReview    LineType = "review"
	LineTypeReference LineType = "reference"
)

func (t LineType) IsValid() bool {
	switch t {
	case LineTypeApproval, LineTypeReview, LineTypeReference:
		return true
	}
	return false
}

// Blocking reports whether a line of this type participates in the
// current_line_order progression.
func (t LineType) Blocking() bool {
	return t == LineTypeApproval || t == LineTypeReview
}

type LineStatus string

const (
	LineStatusPending      LineStatus = "pending"
	LineStatusApproved     LineStatus = "approved"
	LineStatusRejected     LineStatus = "rejected"
	LineStatusSkipped      LineStatus = "skipped"
	LineStatusAcknowledged LineStatus = "acknowledged"
)

type RequestStatus string

const (
	RequestStatusDraft    RequestStatus = "draft"
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

var terminalRequestStatuses = map[RequestStatus]bool{
	RequestStatusApproved: true,
	RequestStatusRejected: true,
}

// IsTerminal reports whether no further transition may mutate the request.
func (s RequestStatus) IsTerminal() bool {
	return terminalRequestStatuses[s]
}

// ChainLine is one slot of the baseline organizational chain, before
// rule application.
type ChainLine struct {
	ApproverID string   `bson:"approver_id" json:"approver_id"`
	LineType   LineType `bson:"line_type" json:"line_type"`
	IsRequired bool     `bson:"is_required" json:"is_required"`
}
