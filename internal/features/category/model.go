package category

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category classifies an approval request and selects which rule-set
// and default lines apply. Categories are never hard-deleted so
// historical requests keep a valid reference.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	SortOrder   int                `bson:"sort_order" json:"sort_order"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
