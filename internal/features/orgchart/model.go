package orgchart

import (
	"time"

	"go-approval/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApproverType says how a default line names its approver. A line may
// point at a concrete user, at whoever holds a position, or at whoever
// holds a role.
type ApproverType string

const (
	ApproverTypeUser     ApproverType = "user"
	ApproverTypePosition ApproverType = "position"
	ApproverTypeRole     ApproverType = "role"
)

func (t ApproverType) IsValid() bool {
	switch t {
	case ApproverTypeUser, ApproverTypePosition, ApproverTypeRole:
		return true
	}
	return false
}

// DefaultLine is one slot of the configured approval chain for a
// category. Lines with an empty TeamID apply org-wide; lines bound to
// a team replace the org-wide set for requesters of that team.
type DefaultLine struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID    string             `bson:"category_id" json:"category_id"`
	TeamID        string             `bson:"team_id,omitempty" json:"team_id,omitempty"`
	ApproverType  ApproverType       `bson:"approver_type" json:"approver_type"`
	ApproverValue string             `bson:"approver_value" json:"approver_value"`
	LineType      models.LineType    `bson:"line_type" json:"line_type"`
	LineOrder     int                `bson:"line_order" json:"line_order"`
	IsRequired    bool               `bson:"is_required" json:"is_required"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
