package rule

import (
	"context"
	"strings"

	"go-approval/internal/common/errs"
	common_models "go-approval/internal/common/models"
	"go-approval/internal/features/audit"

	"go.uber.org/zap"
)

type RuleService interface {
	Create(ctx context.Context, rule *Rule) error
	Get(ctx context.Context, id string) (*Rule, error)
	List(ctx context.Context, activeOnly bool) ([]Rule, error)
	Update(ctx context.Context, id string, rule *Rule) error
	Toggle(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type RuleServiceImpl struct {
	Repo         RuleRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewRuleService(repo RuleRepository, auditService audit.AuditService, logger *zap.Logger) RuleService {
	return &RuleServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Logger:       logger,
	}
}

// validate rejects bad payloads at the write boundary; nothing invalid
// is ever persisted for the matcher to trip over later.
func (s *RuleServiceImpl) validate(ctx context.Context, rule *Rule, selfID string) error {
	rule.Name = strings.TrimSpace(rule.Name)
	if rule.Name == "" {
		return errs.Validation("rule name is required")
	}
	if !rule.Action.IsValid() {
		return errs.Validation("unknown rule action %q", rule.Action)
	}
	if rule.Conditions.MaxAmount != nil && *rule.Conditions.MaxAmount < 0 {
		return errs.Validation("maxAmount must not be negative")
	}

	existing, err := s.Repo.GetByName(ctx, rule.Name)
	if err != nil {
		return errs.Unavailable(err, "rule lookup")
	}
	if existing != nil && existing.ID.Hex() != selfID {
		return errs.Validation("a rule named %q already exists", rule.Name)
	}

	rule.IsGlobal = rule.Conditions.Empty()
	if rule.IsGlobal {
		s.Logger.Warn("rule declares no conditions and will match every request",
			zap.String("rule", rule.Name),
			zap.String("action", string(rule.Action)))
	}
	return nil
}

func (s *RuleServiceImpl) Create(ctx context.Context, rule *Rule) error {
	if err := s.validate(ctx, rule, ""); err != nil {
		return err
	}
	rule.IsActive = true

	if err := s.Repo.Create(ctx, rule); err != nil {
		return errs.Unavailable(err, "rule create")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRule, "approval_rules", rule.ID.Hex(), map[string]common_models.Change{
		"rule": {New: rule},
	})
	return nil
}

func (s *RuleServiceImpl) Get(ctx context.Context, id string) (*Rule, error) {
	rule, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Unavailable(err, "rule lookup")
	}
	if rule == nil {
		return nil, errs.NotFound("rule %s", id)
	}
	return rule, nil
}

func (s *RuleServiceImpl) List(ctx context.Context, activeOnly bool) ([]Rule, error) {
	var (
		rules []Rule
		err   error
	)
	if activeOnly {
		rules, err = s.Repo.ListActive(ctx)
	} else {
		rules, err = s.Repo.List(ctx)
	}
	if err != nil {
		return nil, errs.Unavailable(err, "rule list")
	}
	return rules, nil
}

func (s *RuleServiceImpl) Update(ctx context.Context, id string, rule *Rule) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validate(ctx, rule, id); err != nil {
		return err
	}

	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, rule); err != nil {
		return errs.Unavailable(err, "rule update")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRule, "approval_rules", id, map[string]common_models.Change{
		"rule": {Old: existing, New: rule},
	})
	return nil
}

func (s *RuleServiceImpl) Toggle(ctx context.Context, id string, active bool) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Toggle(ctx, id, active); err != nil {
		return errs.Unavailable(err, "rule toggle")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRule, "approval_rules", id, map[string]common_models.Change{
		"is_active": {Old: existing.IsActive, New: active},
	})
	return nil
}

func (s *RuleServiceImpl) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return errs.Unavailable(err, "rule delete")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionRule, "approval_rules", existing.Name, map[string]common_models.Change{
		"rule": {Old: existing, New: "DELETED"},
	})
	return nil
}
