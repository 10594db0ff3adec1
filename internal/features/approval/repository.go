package approval

import (
	"context"
	"fmt"
	"time"

	"go-approval/internal/common/models"
	"go-approval/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFilter narrows a request listing. Tab selects the viewpoint:
// "pending" is requests awaiting the user's decision, "requested" the
// user's own, "reference" requests where the user holds a reference
// line. An empty tab lists the user's own requests.
type ListFilter struct {
	UserID     string
	Tab        string
	Status     models.RequestStatus
	CategoryID string
	Limit      int64
	Offset     int64
}

// SubmitUpdate is everything a successful draft submission writes in
// one conditional update.
type SubmitUpdate struct {
	DocumentNumber    string
	Lines             []Line
	AppliedRules      []AppliedRule
	Status            models.RequestStatus
	CurrentLineOrder  int
	CurrentApproverID string
	SubmittedAt       time.Time
	CompletedAt       *time.Time
}

type ApprovalRepository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, int64, error)

	// The conditional transitions below return false when the guard did
	// not hold, with no document modified. The caller re-fetches to
	// tell a stale pointer from a missing record.
	Submit(ctx context.Context, id string, requesterID string, upd SubmitUpdate) (bool, error)
	ApproveAdvance(ctx context.Context, id string, actorID string, order int, nextOrder int, nextApproverID string, comment string) (bool, error)
	ApproveComplete(ctx context.Context, id string, actorID string, order int, comment string) (bool, error)
	Reject(ctx context.Context, id string, actorID string, order int, comment string) (bool, error)
	Acknowledge(ctx context.Context, id string, actorID string, order int) (bool, error)
	DeleteDraft(ctx context.Context, id string, requesterID string) (bool, error)

	// ListStalePending returns pending requests untouched since the
	// given instant, oldest first. Consumed by the reminder sweep.
	ListStalePending(ctx context.Context, before time.Time, limit int64) ([]Request, error)

	CountPendingFor(ctx context.Context, userID string) (int64, error)
	CountByRequester(ctx context.Context, userID string, status models.RequestStatus) (int64, error)
	CountCompletedInWindow(ctx context.Context, userID string, status models.RequestStatus, from, to time.Time) (int64, error)

	NextDocumentNumber(ctx context.Context, year int) (string, error)
	EnsureIndexes(ctx context.Context) error
}

type ApprovalRepositoryImpl struct {
	Collection *mongo.Collection
	Counters   *mongo.Collection
}

func NewApprovalRepository(mongodb *database.MongodbDB) ApprovalRepository {
	return &ApprovalRepositoryImpl{
		Collection: mongodb.DB.Collection("approval_requests"),
		Counters:   mongodb.DB.Collection("counters"),
	}
}

func (r *ApprovalRepositoryImpl) Create(ctx context.Context, req *Request) error {
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestStatusDraft
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, req)
	return err
}

func (r *ApprovalRepositoryImpl) GetByID(ctx context.Context, id string) (*Request, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var req Request
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *ApprovalRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]Request, int64, error) {
	query := bson.M{}
	switch filter.Tab {
	case "pending":
		query["status"] = models.RequestStatusPending
		query["current_approver_id"] = filter.UserID
	case "reference":
		query["lines"] = bson.M{"$elemMatch": bson.M{
			"approver_id": filter.UserID,
			"line_type":   models.LineTypeReference,
		}}
	default:
		query["requester_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.CategoryID != "" {
		query["category_id"] = filter.CategoryID
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(filter.Limit).
		SetSkip(filter.Offset)
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *ApprovalRepositoryImpl) Submit(ctx context.Context, id string, requesterID string, upd SubmitUpdate) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	set := bson.M{
		"document_number":     upd.DocumentNumber,
		"lines":               upd.Lines,
		"applied_rules":       upd.AppliedRules,
		"status":              upd.Status,
		"current_line_order":  upd.CurrentLineOrder,
		"current_approver_id": upd.CurrentApproverID,
		"submitted_at":        upd.SubmittedAt,
		"updated_at":          time.Now(),
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = upd.CompletedAt
	}
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "requester_id": requesterID, "status": models.RequestStatusDraft},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// decisionFilter is the atomic guard for approve/reject: the request
// must be pending with its pointer on the given order, and that line
// must still be a pending line held by the actor. Both the pointer and
// the line status flip in the same update, so two racing approvers
// cannot both pass.
func decisionFilter(oid primitive.ObjectID, actorID string, order int) bson.M {
	return bson.M{
		"_id":                oid,
		"status":             models.RequestStatusPending,
		"current_line_order": order,
		"lines": bson.M{"$elemMatch": bson.M{
			"line_order":  order,
			"approver_id": actorID,
			"status":      models.LineStatusPending,
		}},
	}
}

func lineArrayFilter(order int) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"ln.line_order": order}},
	})
}

func (r *ApprovalRepositoryImpl) ApproveAdvance(ctx context.Context, id string, actorID string, order int, nextOrder int, nextApproverID string, comment string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"lines.$[ln].status":   models.LineStatusApproved,
		"lines.$[ln].comment":  comment,
		"lines.$[ln].acted_at": now,
		"current_line_order":   nextOrder,
		"current_approver_id":  nextApproverID,
		"updated_at":           now,
	}}
	res, err := r.Collection.UpdateOne(ctx, decisionFilter(oid, actorID, order), update, lineArrayFilter(order))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ApprovalRepositoryImpl) ApproveComplete(ctx context.Context, id string, actorID string, order int, comment string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"lines.$[ln].status":   models.LineStatusApproved,
		"lines.$[ln].comment":  comment,
		"lines.$[ln].acted_at": now,
		"status":               models.RequestStatusApproved,
		"current_approver_id":  "",
		"completed_at":         now,
		"updated_at":           now,
	}}
	res, err := r.Collection.UpdateOne(ctx, decisionFilter(oid, actorID, order), update, lineArrayFilter(order))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ApprovalRepositoryImpl) Reject(ctx context.Context, id string, actorID string, order int, comment string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"lines.$[ln].status":   models.LineStatusRejected,
		"lines.$[ln].comment":  comment,
		"lines.$[ln].acted_at": now,
		"status":               models.RequestStatusRejected,
		"current_approver_id":  "",
		"completed_at":         now,
		"updated_at":           now,
	}}
	res, err := r.Collection.UpdateOne(ctx, decisionFilter(oid, actorID, order), update, lineArrayFilter(order))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ApprovalRepositoryImpl) Acknowledge(ctx context.Context, id string, actorID string, order int) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	now := time.Now()
	filter := bson.M{
		"_id":    oid,
		"status": bson.M{"$ne": models.RequestStatusDraft},
		"lines": bson.M{"$elemMatch": bson.M{
			"line_order":  order,
			"approver_id": actorID,
			"line_type":   models.LineTypeReference,
			"status":      models.LineStatusPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"lines.$[ln].status":   models.LineStatusAcknowledged,
		"lines.$[ln].acted_at": now,
		"updated_at":           now,
	}}
	res, err := r.Collection.UpdateOne(ctx, filter, update, lineArrayFilter(order))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ApprovalRepositoryImpl) DeleteDraft(ctx context.Context, id string, requesterID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.Collection.DeleteOne(ctx, bson.M{
		"_id":          oid,
		"requester_id": requesterID,
		"status":       models.RequestStatusDraft,
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (r *ApprovalRepositoryImpl) ListStalePending(ctx context.Context, before time.Time, limit int64) ([]Request, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.Collection.Find(ctx, bson.M{
		"status":     models.RequestStatusPending,
		"updated_at": bson.M{"$lt": before},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var requests []Request
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *ApprovalRepositoryImpl) CountPendingFor(ctx context.Context, userID string) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{
		"status":              models.RequestStatusPending,
		"current_approver_id": userID,
	})
}

func (r *ApprovalRepositoryImpl) CountByRequester(ctx context.Context, userID string, status models.RequestStatus) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{
		"requester_id": userID,
		"status":       status,
	})
}

func (r *ApprovalRepositoryImpl) CountCompletedInWindow(ctx context.Context, userID string, status models.RequestStatus, from, to time.Time) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{
		"requester_id": userID,
		"status":       status,
		"completed_at": bson.M{"$gte": from, "$lt": to},
	})
}

// NextDocumentNumber allocates the next sequence for the year from the
// counters collection and formats it as e.g. 2026APR00000042.
func (r *ApprovalRepositoryImpl) NextDocumentNumber(ctx context.Context, year int) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": fmt.Sprintf("approval_%d", year)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%dAPR%08d", year, counter.Seq), nil
}

func (r *ApprovalRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "document_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "current_approver_id", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	return err
}
