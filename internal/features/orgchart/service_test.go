package orgchart

import (
	"context"
	"testing"

	common_models "go-approval/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockUserRepo struct {
	users []common_models.User
}

func (m *mockUserRepo) Create(ctx context.Context, u *common_models.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*common_models.User, error) {
	for i := range m.users {
		if m.users[i].ID.Hex() == id {
			return &m.users[i], nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByIDs(ctx context.Context, ids []string) ([]common_models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*common_models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByPosition(ctx context.Context, position string, teamID string) (*common_models.User, error) {
	for i := range m.users {
		u := &m.users[i]
		if u.Position != position || u.Status != "active" {
			continue
		}
		if teamID != "" && u.TeamID != teamID {
			continue
		}
		return u, nil
	}
	return nil, nil
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role string) (*common_models.User, error) {
	for i := range m.users {
		if m.users[i].Role == role && m.users[i].Status == "active" {
			return &m.users[i], nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int64) ([]common_models.User, error) {
	return nil, nil
}

func (m *mockUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

type mockLineRepo struct {
	lines []DefaultLine
}

func (m *mockLineRepo) Create(ctx context.Context, line *DefaultLine) error { return nil }
func (m *mockLineRepo) GetByID(ctx context.Context, id string) (*DefaultLine, error) {
	return nil, nil
}
func (m *mockLineRepo) ListByCategory(ctx context.Context, categoryID string) ([]DefaultLine, error) {
	var out []DefaultLine
	for _, l := range m.lines {
		if l.CategoryID == categoryID {
			out = append(out, l)
		}
	}
	return out, nil
}
func (m *mockLineRepo) List(ctx context.Context) ([]DefaultLine, error)       { return m.lines, nil }
func (m *mockLineRepo) Update(ctx context.Context, line *DefaultLine) error   { return nil }
func (m *mockLineRepo) Delete(ctx context.Context, id string) error           { return nil }
func (m *mockLineRepo) EnsureIndexes(ctx context.Context) error               { return nil }

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}
func (noopAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func mkUser(name, position, teamID, role string, level int) common_models.User {
	return common_models.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Position: position,
		TeamID:   teamID,
		Role:     role,
		Level:    level,
		Status:   "active",
	}
}

func userLine(category, userID string) DefaultLine {
	return DefaultLine{
		CategoryID:    category,
		ApproverType:  ApproverTypeUser,
		ApproverValue: userID,
		LineType:      common_models.LineTypeApproval,
		IsRequired:    true,
	}
}

func TestResolveChainTeamOverridesGlobal(t *testing.T) {
	requester := mkUser("req", "staff", "team-a", "", 1)
	globalBoss := mkUser("global boss", "director", "", "", 5)
	teamLead := mkUser("team lead", "manager", "team-a", "", 3)

	users := &mockUserRepo{users: []common_models.User{requester, globalBoss, teamLead}}
	lines := &mockLineRepo{lines: []DefaultLine{
		userLine("cat-1", globalBoss.ID.Hex()),
		func() DefaultLine {
			l := userLine("cat-1", teamLead.ID.Hex())
			l.TeamID = "team-a"
			return l
		}(),
	}}

	svc := NewChainService(lines, users, noopAudit{}, zap.NewNop())
	chain, err := svc.ResolveChain(context.Background(), "cat-1", requester.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}

	if len(chain) != 1 {
		t.Fatalf("got %d lines, want only the team chain", len(chain))
	}
	if chain[0].ApproverID != teamLead.ID.Hex() {
		t.Errorf("approver = %s, want the team lead", chain[0].ApproverID)
	}
}

func TestResolveChainFallsBackToGlobal(t *testing.T) {
	requester := mkUser("req", "staff", "team-b", "", 1)
	globalBoss := mkUser("global boss", "director", "", "", 5)

	users := &mockUserRepo{users: []common_models.User{requester, globalBoss}}
	lines := &mockLineRepo{lines: []DefaultLine{userLine("cat-1", globalBoss.ID.Hex())}}

	svc := NewChainService(lines, users, noopAudit{}, zap.NewNop())
	chain, err := svc.ResolveChain(context.Background(), "cat-1", requester.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}
	if len(chain) != 1 || chain[0].ApproverID != globalBoss.ID.Hex() {
		t.Errorf("chain = %v, want the org-wide line", chain)
	}
}

func TestResolveChainSkipsSelfAndJuniors(t *testing.T) {
	requester := mkUser("req", "manager", "team-a", "", 3)
	junior := mkUser("junior", "staff", "team-a", "", 1)
	peer := mkUser("peer", "manager", "team-a", "", 3)
	senior := mkUser("senior", "director", "team-a", "", 5)

	users := &mockUserRepo{users: []common_models.User{requester, junior, peer, senior}}
	lines := &mockLineRepo{lines: []DefaultLine{
		userLine("cat-1", requester.ID.Hex()),
		userLine("cat-1", junior.ID.Hex()),
		userLine("cat-1", peer.ID.Hex()),
		userLine("cat-1", senior.ID.Hex()),
	}}

	svc := NewChainService(lines, users, noopAudit{}, zap.NewNop())
	chain, err := svc.ResolveChain(context.Background(), "cat-1", requester.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}

	if len(chain) != 1 {
		t.Fatalf("got %d lines, want 1 (self, junior, and peer skipped)", len(chain))
	}
	if chain[0].ApproverID != senior.ID.Hex() {
		t.Errorf("approver = %s, want the senior", chain[0].ApproverID)
	}
}

func TestResolveChainPositionPrefersTeamHolder(t *testing.T) {
	requester := mkUser("req", "staff", "team-a", "", 1)
	teamManager := mkUser("team manager", "manager", "team-a", "", 3)
	otherManager := mkUser("other manager", "manager", "team-b", "", 3)

	users := &mockUserRepo{users: []common_models.User{requester, otherManager, teamManager}}
	lines := &mockLineRepo{lines: []DefaultLine{{
		CategoryID:    "cat-1",
		ApproverType:  ApproverTypePosition,
		ApproverValue: "manager",
		LineType:      common_models.LineTypeApproval,
		IsRequired:    true,
	}}}

	svc := NewChainService(lines, users, noopAudit{}, zap.NewNop())
	chain, err := svc.ResolveChain(context.Background(), "cat-1", requester.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}
	if len(chain) != 1 || chain[0].ApproverID != teamManager.ID.Hex() {
		t.Errorf("chain = %v, want the requester's own team manager", chain)
	}
}

func TestResolveChainSkipsUnresolvable(t *testing.T) {
	requester := mkUser("req", "staff", "", "", 1)
	boss := mkUser("boss", "director", "", "", 5)

	users := &mockUserRepo{users: []common_models.User{requester, boss}}
	lines := &mockLineRepo{lines: []DefaultLine{
		{
			CategoryID:    "cat-1",
			ApproverType:  ApproverTypePosition,
			ApproverValue: "cfo", // nobody holds it
			LineType:      common_models.LineTypeApproval,
			IsRequired:    true,
		},
		userLine("cat-1", boss.ID.Hex()),
	}}

	svc := NewChainService(lines, users, noopAudit{}, zap.NewNop())
	chain, err := svc.ResolveChain(context.Background(), "cat-1", requester.ID.Hex())
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}
	if len(chain) != 1 || chain[0].ApproverID != boss.ID.Hex() {
		t.Errorf("chain = %v, want the unresolvable line dropped", chain)
	}
}
