package approval

import (
	"context"
	"strings"
	"time"

	"go-approval/internal/common/errs"
	common_models "go-approval/internal/common/models"
	"go-approval/internal/features/audit"
	"go-approval/internal/features/category"
	"go-approval/internal/features/notification"
	"go-approval/internal/features/rule"

	"go.uber.org/zap"
)

// ChainResolver supplies the baseline organizational chain for a
// requester filing under a category.
type ChainResolver interface {
	ResolveChain(ctx context.Context, categoryID string, requesterID string) ([]common_models.ChainLine, error)
}

type CreateDraftInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID string `json:"category_id"`
	Amount     *int64 `json:"amount"`
}

type ApprovalService interface {
	CreateDraft(ctx context.Context, requesterID string, input CreateDraftInput) (*Request, error)
	Get(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, int64, error)
	Submit(ctx context.Context, id string, requesterID string) (*Request, error)
	Approve(ctx context.Context, id string, actorID string, comment string) (*Request, error)
	Reject(ctx context.Context, id string, actorID string, comment string) (*Request, error)
	Acknowledge(ctx context.Context, id string, actorID string, order int) error
	DiscardDraft(ctx context.Context, id string, requesterID string) error
	Summary(ctx context.Context, userID string) (*Summary, error)
}

type ApprovalServiceImpl struct {
	Repo          ApprovalRepository
	RuleRepo      rule.RuleRepository
	CategoryRepo  category.CategoryRepository
	Chain         ChainResolver
	Notifications notification.NotificationService
	AuditService  audit.AuditService
	Logger        *zap.Logger
}

func NewApprovalService(
	repo ApprovalRepository,
	ruleRepo rule.RuleRepository,
	categoryRepo category.CategoryRepository,
	chain ChainResolver,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	logger *zap.Logger,
) ApprovalService {
	return &ApprovalServiceImpl{
		Repo:          repo,
		RuleRepo:      ruleRepo,
		CategoryRepo:  categoryRepo,
		Chain:         chain,
		Notifications: notifications,
		AuditService:  auditService,
		Logger:        logger,
	}
}

func (s *ApprovalServiceImpl) CreateDraft(ctx context.Context, requesterID string, input CreateDraftInput) (*Request, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, errs.Validation("title is required")
	}
	if input.Amount != nil && *input.Amount < 0 {
		return nil, errs.Validation("amount must not be negative")
	}

	cat, err := s.CategoryRepo.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, errs.Unavailable(err, "category lookup")
	}
	if cat == nil {
		return nil, errs.NotFound("category %s", input.CategoryID)
	}
	if !cat.IsActive {
		return nil, errs.Validation("category %q is no longer active", cat.Name)
	}

	req := &Request{
		Title:       input.Title,
		Content:     input.Content,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		RequesterID: requesterID,
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		return nil, errs.Unavailable(err, "request create")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "approval_requests", req.ID.Hex(), map[string]common_models.Change{
		"request": {New: req},
	})
	return req, nil
}

func (s *ApprovalServiceImpl) Get(ctx context.Context, id string) (*Request, error) {
	req, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Unavailable(err, "request lookup")
	}
	if req == nil {
		return nil, errs.NotFound("request %s", id)
	}
	return req, nil
}

func (s *ApprovalServiceImpl) List(ctx context.Context, filter ListFilter) ([]Request, int64, error) {
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	requests, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, 0, errs.Unavailable(err, "request list")
	}
	return requests, total, nil
}

// Submit resolves the chain once, persists it, and moves the request
// out of draft. The resolved lines are never recomputed afterwards, so
// later rule edits cannot touch an in-flight request.
func (s *ApprovalServiceImpl) Submit(ctx context.Context, id string, requesterID string) (*Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != requesterID {
		return nil, errs.Conflict("request %s belongs to another requester", id)
	}
	if req.Status != common_models.RequestStatusDraft {
		return nil, errs.Conflict("request %s is %s, only drafts can be submitted", id, req.Status)
	}

	chain, err := s.Chain.ResolveChain(ctx, req.CategoryID, req.RequesterID)
	if err != nil {
		return nil, err
	}
	activeRules, err := s.RuleRepo.ListActive(ctx)
	if err != nil {
		return nil, errs.Unavailable(err, "rule snapshot")
	}
	matched := rule.Match(rule.Attributes{
		CategoryID:  req.CategoryID,
		RequesterID: req.RequesterID,
		Amount:      req.Amount,
	}, activeRules)

	res := ResolveLines(chain, matched)

	now := time.Now()
	for i := range res.Lines {
		if res.Lines[i].Status == common_models.LineStatusApproved {
			res.Lines[i].ActedAt = &now
		}
	}

	docNum, err := s.Repo.NextDocumentNumber(ctx, now.Year())
	if err != nil {
		return nil, errs.Unavailable(err, "document number")
	}

	upd := SubmitUpdate{
		DocumentNumber: docNum,
		Lines:          res.Lines,
		AppliedRules:   res.Applied,
		SubmittedAt:    now,
	}
	if res.StraightThrough {
		upd.Status = common_models.RequestStatusApproved
		upd.CompletedAt = &now
	} else {
		first := FirstActionableOrder(res.Lines)
		upd.Status = common_models.RequestStatusPending
		upd.CurrentLineOrder = first
		upd.CurrentApproverID = res.Lines[first-1].ApproverID
	}

	ok, err := s.Repo.Submit(ctx, id, requesterID, upd)
	if err != nil {
		return nil, errs.Unavailable(err, "request submit")
	}
	if !ok {
		return nil, s.explainMiss(ctx, id, "submit")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionSubmit, "approval_requests", id, map[string]common_models.Change{
		"status":           {Old: common_models.RequestStatusDraft, New: upd.Status},
		"document_number":  {New: docNum},
		"applied_rules":    {New: res.Applied},
		"straight_through": {New: res.StraightThrough},
	})

	submitted, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifySubmitted(ctx, submitted)
	return submitted, nil
}

func (s *ApprovalServiceImpl) notifySubmitted(ctx context.Context, req *Request) {
	if req.Status == common_models.RequestStatusPending {
		s.Notifications.Notify(ctx, req.CurrentApproverID,
			"Approval requested",
			"Request "+req.DocumentNumber+" is waiting for your decision",
			notification.NotificationTypeNextActor, "/approvals/"+req.ID.Hex())
	} else {
		s.Notifications.Notify(ctx, req.RequesterID,
			"Request approved",
			"Request "+req.DocumentNumber+" was approved automatically",
			notification.NotificationTypeTerminal, "/approvals/"+req.ID.Hex())
	}
	for _, l := range req.Lines {
		if l.LineType == common_models.LineTypeReference && l.Status == common_models.LineStatusPending {
			s.Notifications.Notify(ctx, l.ApproverID,
				"For your reference",
				"Request "+req.DocumentNumber+" was shared with you",
				notification.NotificationTypeReference, "/approvals/"+req.ID.Hex())
		}
	}
}

func (s *ApprovalServiceImpl) Approve(ctx context.Context, id string, actorID string, comment string) (*Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != common_models.RequestStatusPending {
		return nil, errs.Conflict("request %s is %s, no decision can be made", id, req.Status)
	}

	order := req.CurrentLineOrder
	next := NextActionableOrder(req.Lines, order)

	var ok bool
	if next > 0 {
		nextLine := req.LineAt(next)
		ok, err = s.Repo.ApproveAdvance(ctx, id, actorID, order, next, nextLine.ApproverID, comment)
	} else {
		ok, err = s.Repo.ApproveComplete(ctx, id, actorID, order, comment)
	}
	if err != nil {
		return nil, errs.Unavailable(err, "request approve")
	}
	if !ok {
		return nil, s.explainMiss(ctx, id, "approve")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionApprove, "approval_requests", id, map[string]common_models.Change{
		"line_order": {New: order},
		"comment":    {New: comment},
	})

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated.Status == common_models.RequestStatusApproved {
		s.Notifications.Notify(ctx, updated.RequesterID,
			"Request approved",
			"Request "+updated.DocumentNumber+" was approved",
			notification.NotificationTypeTerminal, "/approvals/"+id)
	} else {
		s.Notifications.Notify(ctx, updated.CurrentApproverID,
			"Approval requested",
			"Request "+updated.DocumentNumber+" is waiting for your decision",
			notification.NotificationTypeNextActor, "/approvals/"+id)
	}
	return updated, nil
}

// Reject terminates the whole request. Remaining lines stay untouched
// in the record; rejection does not cascade.
func (s *ApprovalServiceImpl) Reject(ctx context.Context, id string, actorID string, comment string) (*Request, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, errs.Validation("a rejection requires a comment")
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != common_models.RequestStatusPending {
		return nil, errs.Conflict("request %s is %s, no decision can be made", id, req.Status)
	}

	ok, err := s.Repo.Reject(ctx, id, actorID, req.CurrentLineOrder, comment)
	if err != nil {
		return nil, errs.Unavailable(err, "request reject")
	}
	if !ok {
		return nil, s.explainMiss(ctx, id, "reject")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionReject, "approval_requests", id, map[string]common_models.Change{
		"line_order": {New: req.CurrentLineOrder},
		"comment":    {New: comment},
	})

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Notifications.Notify(ctx, updated.RequesterID,
		"Request rejected",
		"Request "+updated.DocumentNumber+" was rejected",
		notification.NotificationTypeTerminal, "/approvals/"+id)
	return updated, nil
}

func (s *ApprovalServiceImpl) Acknowledge(ctx context.Context, id string, actorID string, order int) error {
	ok, err := s.Repo.Acknowledge(ctx, id, actorID, order)
	if err != nil {
		return errs.Unavailable(err, "request acknowledge")
	}
	if !ok {
		req, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return errs.Unavailable(err, "request lookup")
		}
		if req == nil {
			return errs.NotFound("request %s", id)
		}
		return errs.Conflict("line %d of request %s is not an open reference line for this user", order, id)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionAcknowledge, "approval_requests", id, map[string]common_models.Change{
		"line_order": {New: order},
	})
	return nil
}

func (s *ApprovalServiceImpl) DiscardDraft(ctx context.Context, id string, requesterID string) error {
	ok, err := s.Repo.DeleteDraft(ctx, id, requesterID)
	if err != nil {
		return errs.Unavailable(err, "draft discard")
	}
	if !ok {
		req, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return errs.Unavailable(err, "request lookup")
		}
		if req == nil {
			return errs.NotFound("request %s", id)
		}
		return errs.Conflict("request %s is %s, only drafts can be discarded", id, req.Status)
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDiscard, "approval_requests", id, map[string]common_models.Change{
		"request": {Old: id, New: "DISCARDED"},
	})
	return nil
}

func (s *ApprovalServiceImpl) Summary(ctx context.Context, userID string) (*Summary, error) {
	from, to := monthWindow(time.Now())

	pending, err := s.Repo.CountPendingFor(ctx, userID)
	if err != nil {
		return nil, errs.Unavailable(err, "summary")
	}
	requested, err := s.Repo.CountByRequester(ctx, userID, common_models.RequestStatusPending)
	if err != nil {
		return nil, errs.Unavailable(err, "summary")
	}
	drafts, err := s.Repo.CountByRequester(ctx, userID, common_models.RequestStatusDraft)
	if err != nil {
		return nil, errs.Unavailable(err, "summary")
	}
	approved, err := s.Repo.CountCompletedInWindow(ctx, userID, common_models.RequestStatusApproved, from, to)
	if err != nil {
		return nil, errs.Unavailable(err, "summary")
	}
	rejected, err := s.Repo.CountCompletedInWindow(ctx, userID, common_models.RequestStatusRejected, from, to)
	if err != nil {
		return nil, errs.Unavailable(err, "summary")
	}

	return &Summary{
		PendingCount:   pending,
		RequestedCount: requested,
		ApprovedCount:  approved,
		RejectedCount:  rejected,
		DraftCount:     drafts,
	}, nil
}

// monthWindow returns the half-open [start, end) range of the calendar
// month containing now.
func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// explainMiss turns a failed conditional update into the right
// taxonomy error: the record is gone, or someone else got there first.
func (s *ApprovalServiceImpl) explainMiss(ctx context.Context, id string, op string) error {
	req, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return errs.Unavailable(err, "request lookup")
	}
	if req == nil {
		return errs.NotFound("request %s", id)
	}
	return errs.Conflict("request %s changed concurrently, %s did not apply", id, op)
}
