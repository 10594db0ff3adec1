package orgchart

import (
	"context"
	"time"

	"go-approval/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DefaultLineRepository interface {
	Create(ctx context.Context, line *DefaultLine) error
	GetByID(ctx context.Context, id string) (*DefaultLine, error)
	// ListByCategory returns every configured line for the category,
	// both team-bound and org-wide, ordered by line_order.
	ListByCategory(ctx context.Context, categoryID string) ([]DefaultLine, error)
	List(ctx context.Context) ([]DefaultLine, error)
	Update(ctx context.Context, line *DefaultLine) error
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type DefaultLineRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDefaultLineRepository(mongodb *database.MongodbDB) DefaultLineRepository {
	return &DefaultLineRepositoryImpl{
		Collection: mongodb.DB.Collection("approval_default_lines"),
	}
}

func (r *DefaultLineRepositoryImpl) Create(ctx context.Context, line *DefaultLine) error {
	line.ID = primitive.NewObjectID()
	line.CreatedAt = time.Now()
	line.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, line)
	return err
}

func (r *DefaultLineRepositoryImpl) GetByID(ctx context.Context, id string) (*DefaultLine, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var line DefaultLine
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&line)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *DefaultLineRepositoryImpl) ListByCategory(ctx context.Context, categoryID string) ([]DefaultLine, error) {
	return r.find(ctx, bson.M{"category_id": categoryID})
}

func (r *DefaultLineRepositoryImpl) List(ctx context.Context) ([]DefaultLine, error) {
	return r.find(ctx, bson.M{})
}

func (r *DefaultLineRepositoryImpl) find(ctx context.Context, filter bson.M) ([]DefaultLine, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "category_id", Value: 1},
		{Key: "team_id", Value: 1},
		{Key: "line_order", Value: 1},
	})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var lines []DefaultLine
	if err = cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *DefaultLineRepositoryImpl) Update(ctx context.Context, line *DefaultLine) error {
	line.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"category_id":    line.CategoryID,
			"team_id":        line.TeamID,
			"approver_type":  line.ApproverType,
			"approver_value": line.ApproverValue,
			"line_type":      line.LineType,
			"line_order":     line.LineOrder,
			"is_required":    line.IsRequired,
			"updated_at":     line.UpdatedAt,
		},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": line.ID}, update)
	return err
}

func (r *DefaultLineRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (r *DefaultLineRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "category_id", Value: 1},
			{Key: "team_id", Value: 1},
			{Key: "line_order", Value: 1},
		},
	})
	return err
}
