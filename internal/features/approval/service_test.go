package approval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-approval/internal/common/errs"
	common_models "go-approval/internal/common/models"
	"go-approval/internal/features/category"
	"go-approval/internal/features/notification"
	"go-approval/internal/features/rule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mockApprovalRepo keeps requests in memory and enforces the same
// conditional-update guards the Mongo implementation does, so the
// service's conflict handling is exercised for real.
type mockApprovalRepo struct {
	byID map[string]*Request
	seq  int64
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{byID: map[string]*Request{}}
}

func (m *mockApprovalRepo) Create(ctx context.Context, req *Request) error {
	req.ID = primitive.NewObjectID()
	req.Status = common_models.RequestStatusDraft
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	cp := *req
	m.byID[req.ID.Hex()] = &cp
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id string) (*Request, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.Lines = append([]Line(nil), r.Lines...)
	return &cp, nil
}

func (m *mockApprovalRepo) List(ctx context.Context, filter ListFilter) ([]Request, int64, error) {
	return nil, 0, nil
}

func (m *mockApprovalRepo) Submit(ctx context.Context, id string, requesterID string, upd SubmitUpdate) (bool, error) {
	r, ok := m.byID[id]
	if !ok || r.RequesterID != requesterID || r.Status != common_models.RequestStatusDraft {
		return false, nil
	}
	r.DocumentNumber = upd.DocumentNumber
	r.Lines = append([]Line(nil), upd.Lines...)
	r.AppliedRules = upd.AppliedRules
	r.Status = upd.Status
	r.CurrentLineOrder = upd.CurrentLineOrder
	r.CurrentApproverID = upd.CurrentApproverID
	submittedAt := upd.SubmittedAt
	r.SubmittedAt = &submittedAt
	r.CompletedAt = upd.CompletedAt
	return true, nil
}

func (m *mockApprovalRepo) decide(id string, actorID string, order int) (*Request, *Line) {
	r, ok := m.byID[id]
	if !ok || r.Status != common_models.RequestStatusPending || r.CurrentLineOrder != order {
		return nil, nil
	}
	for i := range r.Lines {
		l := &r.Lines[i]
		if l.LineOrder == order && l.ApproverID == actorID && l.Status == common_models.LineStatusPending {
			return r, l
		}
	}
	return nil, nil
}

func (m *mockApprovalRepo) ApproveAdvance(ctx context.Context, id string, actorID string, order int, nextOrder int, nextApproverID string, comment string) (bool, error) {
	r, l := m.decide(id, actorID, order)
	if r == nil {
		return false, nil
	}
	now := time.Now()
	l.Status = common_models.LineStatusApproved
	l.Comment = comment
	l.ActedAt = &now
	r.CurrentLineOrder = nextOrder
	r.CurrentApproverID = nextApproverID
	return true, nil
}

func (m *mockApprovalRepo) ApproveComplete(ctx context.Context, id string, actorID string, order int, comment string) (bool, error) {
	r, l := m.decide(id, actorID, order)
	if r == nil {
		return false, nil
	}
	now := time.Now()
	l.Status = common_models.LineStatusApproved
	l.Comment = comment
	l.ActedAt = &now
	r.Status = common_models.RequestStatusApproved
	r.CurrentApproverID = ""
	r.CompletedAt = &now
	return true, nil
}

func (m *mockApprovalRepo) Reject(ctx context.Context, id string, actorID string, order int, comment string) (bool, error) {
	r, l := m.decide(id, actorID, order)
	if r == nil {
		return false, nil
	}
	now := time.Now()
	l.Status = common_models.LineStatusRejected
	l.Comment = comment
	l.ActedAt = &now
	r.Status = common_models.RequestStatusRejected
	r.CurrentApproverID = ""
	r.CompletedAt = &now
	return true, nil
}

func (m *mockApprovalRepo) Acknowledge(ctx context.Context, id string, actorID string, order int) (bool, error) {
	r, ok := m.byID[id]
	if !ok || r.Status == common_models.RequestStatusDraft {
		return false, nil
	}
	for i := range r.Lines {
		l := &r.Lines[i]
		if l.LineOrder == order && l.ApproverID == actorID &&
			l.LineType == common_models.LineTypeReference && l.Status == common_models.LineStatusPending {
			now := time.Now()
			l.Status = common_models.LineStatusAcknowledged
			l.ActedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApprovalRepo) DeleteDraft(ctx context.Context, id string, requesterID string) (bool, error) {
	r, ok := m.byID[id]
	if !ok || r.RequesterID != requesterID || r.Status != common_models.RequestStatusDraft {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *mockApprovalRepo) ListStalePending(ctx context.Context, before time.Time, limit int64) ([]Request, error) {
	return nil, nil
}

func (m *mockApprovalRepo) CountPendingFor(ctx context.Context, userID string) (int64, error) {
	var n int64
	for _, r := range m.byID {
		if r.Status == common_models.RequestStatusPending && r.CurrentApproverID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockApprovalRepo) CountByRequester(ctx context.Context, userID string, status common_models.RequestStatus) (int64, error) {
	var n int64
	for _, r := range m.byID {
		if r.RequesterID == userID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockApprovalRepo) CountCompletedInWindow(ctx context.Context, userID string, status common_models.RequestStatus, from, to time.Time) (int64, error) {
	var n int64
	for _, r := range m.byID {
		if r.RequesterID != userID || r.Status != status || r.CompletedAt == nil {
			continue
		}
		if !r.CompletedAt.Before(from) && r.CompletedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *mockApprovalRepo) NextDocumentNumber(ctx context.Context, year int) (string, error) {
	m.seq++
	return fmt.Sprintf("%dAPR%08d", year, m.seq), nil
}

func (m *mockApprovalRepo) EnsureIndexes(ctx context.Context) error { return nil }

type ruleRepoStub struct {
	rules []rule.Rule
}

func (s *ruleRepoStub) Create(ctx context.Context, r *rule.Rule) error { return nil }
func (s *ruleRepoStub) GetByID(ctx context.Context, id string) (*rule.Rule, error) {
	return nil, nil
}
func (s *ruleRepoStub) GetByName(ctx context.Context, name string) (*rule.Rule, error) {
	return nil, nil
}
func (s *ruleRepoStub) ListActive(ctx context.Context) ([]rule.Rule, error) { return s.rules, nil }
func (s *ruleRepoStub) List(ctx context.Context) ([]rule.Rule, error)       { return s.rules, nil }
func (s *ruleRepoStub) Update(ctx context.Context, r *rule.Rule) error      { return nil }
func (s *ruleRepoStub) Toggle(ctx context.Context, id string, active bool) error {
	return nil
}
func (s *ruleRepoStub) Delete(ctx context.Context, id string) error        { return nil }
func (s *ruleRepoStub) EnsureIndexes(ctx context.Context) error            { return nil }

type categoryRepoStub struct {
	byID map[string]*category.Category
}

func (s *categoryRepoStub) Create(ctx context.Context, c *category.Category) error { return nil }
func (s *categoryRepoStub) GetByID(ctx context.Context, id string) (*category.Category, error) {
	return s.byID[id], nil
}
func (s *categoryRepoStub) GetByName(ctx context.Context, name string) (*category.Category, error) {
	return nil, nil
}
func (s *categoryRepoStub) List(ctx context.Context, activeOnly bool) ([]category.Category, error) {
	return nil, nil
}
func (s *categoryRepoStub) Update(ctx context.Context, id string, c *category.Category) error {
	return nil
}
func (s *categoryRepoStub) Deactivate(ctx context.Context, id string) error { return nil }
func (s *categoryRepoStub) EnsureIndexes(ctx context.Context) error         { return nil }

type chainStub struct {
	chain []common_models.ChainLine
	err   error
}

func (s *chainStub) ResolveChain(ctx context.Context, categoryID string, requesterID string) ([]common_models.ChainLine, error) {
	return s.chain, s.err
}

type notifierStub struct {
	sent []string
}

func (s *notifierStub) Notify(ctx context.Context, userID, title, message string, ntype notification.NotificationType, link string) {
	s.sent = append(s.sent, userID+":"+string(ntype))
}
func (s *notifierStub) GetUserNotifications(ctx context.Context, userID string, page, limit int64) ([]notification.Notification, int64, error) {
	return nil, 0, nil
}
func (s *notifierStub) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}
func (s *notifierStub) MarkAsRead(ctx context.Context, id string, userID string) error { return nil }
func (s *notifierStub) MarkAllAsRead(ctx context.Context, userID string) error         { return nil }

type auditStub struct{}

func (auditStub) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}
func (auditStub) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type testEnv struct {
	svc      ApprovalService
	repo     *mockApprovalRepo
	chain    *chainStub
	rules    *ruleRepoStub
	notifier *notifierStub
}

func newTestEnv() *testEnv {
	repo := newMockApprovalRepo()
	chain := &chainStub{}
	rules := &ruleRepoStub{}
	notifier := &notifierStub{}
	cats := &categoryRepoStub{byID: map[string]*category.Category{
		"cat-1": {Name: "General", IsActive: true},
	}}
	svc := NewApprovalService(repo, rules, cats, chain, notifier, auditStub{}, zap.NewNop())
	return &testEnv{svc: svc, repo: repo, chain: chain, rules: rules, notifier: notifier}
}

func (e *testEnv) draft(t *testing.T, requester string, amt *int64) *Request {
	t.Helper()
	req, err := e.svc.CreateDraft(context.Background(), requester, CreateDraftInput{
		Title:      "office chairs",
		CategoryID: "cat-1",
		Amount:     amt,
	})
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	return req
}

func TestSubmitResolvesAndGoesPending(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}

	req := env.draft(t, "requester", nil)
	got, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got.Status != common_models.RequestStatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.CurrentLineOrder != 1 {
		t.Errorf("current_line_order = %d, want 1", got.CurrentLineOrder)
	}
	if got.CurrentApproverID != "u-1" {
		t.Errorf("current_approver_id = %s, want u-1", got.CurrentApproverID)
	}
	if got.DocumentNumber == "" {
		t.Error("submission must assign a document number")
	}
	if len(env.notifier.sent) == 0 || env.notifier.sent[0] != "u-1:next_actor" {
		t.Errorf("first approver not notified, sent = %v", env.notifier.sent)
	}
}

func TestSubmitStraightThrough(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1")}
	env.rules.rules = []rule.Rule{{
		ID:       primitive.NewObjectID(),
		Name:     "small purchases",
		Action:   rule.ActionAutoApprove,
		IsActive: true,
	}}

	req := env.draft(t, "requester", amount(500))
	got, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got.Status != common_models.RequestStatusApproved {
		t.Errorf("status = %s, want approved without entering pending", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("straight-through completion must stamp completed_at")
	}
	if len(got.AppliedRules) != 1 {
		t.Errorf("applied rules = %v, want the auto-approve recorded", got.AppliedRules)
	}
}

func TestSubmitTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1")}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester")
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("second Submit error = %v, want conflict", err)
	}
}

func TestApproveByNonHolderConflicts(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err := env.svc.Approve(context.Background(), req.ID.Hex(), "u-2", "")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("Approve by non-holder error = %v, want conflict", err)
	}

	after, _ := env.repo.GetByID(context.Background(), req.ID.Hex())
	if after.CurrentLineOrder != 1 || after.Lines[1].Status != common_models.LineStatusPending {
		t.Error("conflicting decision must leave state unchanged")
	}
}

func TestApproveAdvancesThenCompletes(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1"), requiredLine("u-2")}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	id := req.ID.Hex()

	mid, err := env.svc.Approve(context.Background(), id, "u-1", "looks fine")
	if err != nil {
		t.Fatalf("Approve line 1: %v", err)
	}
	if mid.CurrentLineOrder != 2 {
		t.Errorf("pointer = %d after first approval, want 2", mid.CurrentLineOrder)
	}

	final, err := env.svc.Approve(context.Background(), id, "u-2", "")
	if err != nil {
		t.Fatalf("Approve line 2: %v", err)
	}
	if final.Status != common_models.RequestStatusApproved {
		t.Errorf("status = %s, want approved", final.Status)
	}
	if final.CompletedAt == nil {
		t.Error("final approval must stamp completed_at")
	}
}

func TestRejectShortCircuits(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{
		requiredLine("u-1"), requiredLine("u-2"), requiredLine("u-3"),
	}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	id := req.ID.Hex()

	if _, err := env.svc.Approve(context.Background(), id, "u-1", ""); err != nil {
		t.Fatalf("Approve line 1: %v", err)
	}

	got, err := env.svc.Reject(context.Background(), id, "u-2", "budget exceeded")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != common_models.RequestStatusRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}
	if got.Lines[2].Status != common_models.LineStatusPending {
		t.Errorf("line 3 status = %s, must stay pending forever", got.Lines[2].Status)
	}

	// Terminal state is immutable.
	if _, err := env.svc.Approve(context.Background(), id, "u-3", ""); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("decision after terminal state error = %v, want conflict", err)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1")}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err := env.svc.Reject(context.Background(), req.ID.Hex(), "u-1", "   ")
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("Reject without comment error = %v, want validation", err)
	}
}

func TestAcknowledgeReferenceLine(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1"), referenceLine("u-9")}

	req := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	id := req.ID.Hex()

	// Works while the main flow is still pending.
	if err := env.svc.Acknowledge(context.Background(), id, "u-9", 2); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	after, _ := env.repo.GetByID(context.Background(), id)
	if after.Lines[1].Status != common_models.LineStatusAcknowledged {
		t.Errorf("reference line status = %s, want acknowledged", after.Lines[1].Status)
	}
	if after.Status != common_models.RequestStatusPending || after.CurrentLineOrder != 1 {
		t.Error("acknowledging a reference line must not touch the main flow")
	}

	// Acknowledging twice is a conflict.
	if err := env.svc.Acknowledge(context.Background(), id, "u-9", 2); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("second Acknowledge error = %v, want conflict", err)
	}
}

func TestDiscardDraftOnly(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("u-1")}

	req := env.draft(t, "requester", nil)
	if err := env.svc.DiscardDraft(context.Background(), req.ID.Hex(), "requester"); err != nil {
		t.Fatalf("DiscardDraft: %v", err)
	}

	submitted := env.draft(t, "requester", nil)
	if _, err := env.svc.Submit(context.Background(), submitted.ID.Hex(), "requester"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	err := env.svc.DiscardDraft(context.Background(), submitted.ID.Hex(), "requester")
	if !errors.Is(err, errs.ErrConflict) {
		t.Errorf("discarding a pending request error = %v, want conflict", err)
	}
}

func TestSummaryCounts(t *testing.T) {
	env := newTestEnv()
	env.chain.chain = []common_models.ChainLine{requiredLine("approver")}

	// One draft, one pending awaiting "approver", one approved this month.
	env.draft(t, "me", nil)

	pending := env.draft(t, "me", nil)
	if _, err := env.svc.Submit(context.Background(), pending.ID.Hex(), "me"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	done := env.draft(t, "me", nil)
	if _, err := env.svc.Submit(context.Background(), done.ID.Hex(), "me"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.svc.Approve(context.Background(), done.ID.Hex(), "approver", ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	mine, err := env.svc.Summary(context.Background(), "me")
	if err != nil {
		t.Fatalf("Summary(me): %v", err)
	}
	if mine.DraftCount != 1 || mine.RequestedCount != 1 || mine.ApprovedCount != 1 || mine.RejectedCount != 0 {
		t.Errorf("Summary(me) = %+v", mine)
	}

	theirs, err := env.svc.Summary(context.Background(), "approver")
	if err != nil {
		t.Fatalf("Summary(approver): %v", err)
	}
	if theirs.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1 (only the active line counts)", theirs.PendingCount)
	}

	// An unknown user simply gets zeroes.
	nobody, err := env.svc.Summary(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("Summary(stranger): %v", err)
	}
	if nobody.PendingCount+nobody.RequestedCount+nobody.DraftCount != 0 {
		t.Errorf("Summary(stranger) = %+v, want all zero", nobody)
	}
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	from, to := monthWindow(now)

	if !from.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	if !to.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", to)
	}

	// December rolls into the next year.
	if _, to := monthWindow(time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)); to.Year() != 2027 || to.Month() != time.January {
		t.Errorf("december window end = %v", to)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateDraft(context.Background(), "me", CreateDraftInput{CategoryID: "cat-1"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("missing title error = %v, want validation", err)
	}

	_, err = env.svc.CreateDraft(context.Background(), "me", CreateDraftInput{Title: "x", CategoryID: "nope"})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown category error = %v, want not found", err)
	}
}
