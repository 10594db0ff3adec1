package orgchart

import (
	"context"

	"go-approval/internal/common/errs"
	common_models "go-approval/internal/common/models"
	"go-approval/internal/features/audit"
	"go-approval/internal/features/user"

	"go.uber.org/zap"
)

type ChainService interface {
	// ResolveChain builds the baseline approval chain for a requester
	// filing under a category, before any rule is applied. The returned
	// lines are ordered and reference concrete user IDs.
	ResolveChain(ctx context.Context, categoryID string, requesterID string) ([]common_models.ChainLine, error)

	CreateLine(ctx context.Context, line *DefaultLine) error
	ListLines(ctx context.Context, categoryID string) ([]DefaultLine, error)
	UpdateLine(ctx context.Context, id string, line *DefaultLine) error
	DeleteLine(ctx context.Context, id string) error
}

type ChainServiceImpl struct {
	Repo         DefaultLineRepository
	UserRepo     user.UserRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewChainService(repo DefaultLineRepository, userRepo user.UserRepository, auditService audit.AuditService, logger *zap.Logger) ChainService {
	return &ChainServiceImpl{
		Repo:         repo,
		UserRepo:     userRepo,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *ChainServiceImpl) ResolveChain(ctx context.Context, categoryID string, requesterID string) ([]common_models.ChainLine, error) {
	requester, err := s.UserRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, errs.Unavailable(err, "requester lookup")
	}
	if requester == nil {
		return nil, errs.NotFound("user %s", requesterID)
	}

	configured, err := s.Repo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, errs.Unavailable(err, "default line lookup")
	}
	configured = selectForTeam(configured, requester.TeamID)

	chain := make([]common_models.ChainLine, 0, len(configured))
	for _, line := range configured {
		approver, err := s.resolveApprover(ctx, line, requester.TeamID)
		if err != nil {
			return nil, err
		}
		if approver == nil {
			s.Logger.Warn("default line names an approver nobody holds",
				zap.String("category_id", categoryID),
				zap.String("approver_type", string(line.ApproverType)),
				zap.String("approver_value", line.ApproverValue))
			continue
		}
		// A requester never approves their own request, and seniors are
		// not routed through juniors.
		if approver.ID == requester.ID {
			continue
		}
		if requester.Level > 0 && approver.Level > 0 && approver.Level <= requester.Level {
			continue
		}
		chain = append(chain, common_models.ChainLine{
			ApproverID: approver.ID.Hex(),
			LineType:   line.LineType,
			IsRequired: line.IsRequired,
		})
	}
	return chain, nil
}

// selectForTeam narrows the configured lines to the requester's team
// when the team has its own chain; otherwise the org-wide lines apply.
func selectForTeam(lines []DefaultLine, teamID string) []DefaultLine {
	if teamID != "" {
		team := make([]DefaultLine, 0, len(lines))
		for _, l := range lines {
			if l.TeamID == teamID {
				team = append(team, l)
			}
		}
		if len(team) > 0 {
			return team
		}
	}
	global := make([]DefaultLine, 0, len(lines))
	for _, l := range lines {
		if l.TeamID == "" {
			global = append(global, l)
		}
	}
	return global
}

func (s *ChainServiceImpl) resolveApprover(ctx context.Context, line DefaultLine, teamID string) (*common_models.User, error) {
	switch line.ApproverType {
	case ApproverTypeUser:
		u, err := s.UserRepo.FindByID(ctx, line.ApproverValue)
		if err != nil {
			return nil, errs.Unavailable(err, "approver lookup")
		}
		return u, nil
	case ApproverTypePosition:
		// Prefer the position holder inside the requester's team, fall
		// back to an org-wide holder.
		if teamID != "" {
			u, err := s.UserRepo.FindByPosition(ctx, line.ApproverValue, teamID)
			if err != nil {
				return nil, errs.Unavailable(err, "approver lookup")
			}
			if u != nil {
				return u, nil
			}
		}
		u, err := s.UserRepo.FindByPosition(ctx, line.ApproverValue, "")
		if err != nil {
			return nil, errs.Unavailable(err, "approver lookup")
		}
		return u, nil
	case ApproverTypeRole:
		u, err := s.UserRepo.FindByRole(ctx, line.ApproverValue)
		if err != nil {
			return nil, errs.Unavailable(err, "approver lookup")
		}
		return u, nil
	}
	return nil, errs.Validation("unknown approver type %q", line.ApproverType)
}

func (s *ChainServiceImpl) validate(line *DefaultLine) error {
	if line.CategoryID == "" {
		return errs.Validation("category_id is required")
	}
	if !line.ApproverType.IsValid() {
		return errs.Validation("unknown approver type %q", line.ApproverType)
	}
	if line.ApproverValue == "" {
		return errs.Validation("approver_value is required")
	}
	if !line.LineType.IsValid() {
		return errs.Validation("unknown line type %q", line.LineType)
	}
	if line.LineOrder < 1 {
		return errs.Validation("line_order must be positive")
	}
	return nil
}

func (s *ChainServiceImpl) CreateLine(ctx context.Context, line *DefaultLine) error {
	if err := s.validate(line); err != nil {
		return err
	}
	if err := s.Repo.Create(ctx, line); err != nil {
		return errs.Unavailable(err, "default line create")
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionChain, "approval_default_lines", line.ID.Hex(), map[string]common_models.Change{
		"line": {New: line},
	})
	return nil
}

func (s *ChainServiceImpl) ListLines(ctx context.Context, categoryID string) ([]DefaultLine, error) {
	var (
		lines []DefaultLine
		err   error
	)
	if categoryID != "" {
		lines, err = s.Repo.ListByCategory(ctx, categoryID)
	} else {
		lines, err = s.Repo.List(ctx)
	}
	if err != nil {
		return nil, errs.Unavailable(err, "default line list")
	}
	return lines, nil
}

func (s *ChainServiceImpl) UpdateLine(ctx context.Context, id string, line *DefaultLine) error {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return errs.Unavailable(err, "default line lookup")
	}
	if existing == nil {
		return errs.NotFound("default line %s", id)
	}
	if err := s.validate(line); err != nil {
		return err
	}

	line.ID = existing.ID
	line.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, line); err != nil {
		return errs.Unavailable(err, "default line update")
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionChain, "approval_default_lines", id, map[string]common_models.Change{
		"line": {Old: existing, New: line},
	})
	return nil
}

func (s *ChainServiceImpl) DeleteLine(ctx context.Context, id string) error {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return errs.Unavailable(err, "default line lookup")
	}
	if existing == nil {
		return errs.NotFound("default line %s", id)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return errs.Unavailable(err, "default line delete")
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionChain, "approval_default_lines", id, map[string]common_models.Change{
		"line": {Old: existing, New: "DELETED"},
	})
	return nil
}
