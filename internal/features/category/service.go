package category

import (
	"context"
	"strings"

	"go-approval/internal/common/errs"
	common_models "go-approval/internal/common/models"
	"go-approval/internal/features/audit"
)

type CategoryService interface {
	Create(ctx context.Context, category *Category) error
	Get(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Update(ctx context.Context, id string, category *Category) error
	// Deactivate is the only removal operation; historical requests
	// must keep a resolvable category reference.
	Deactivate(ctx context.Context, id string) error
}

type CategoryServiceImpl struct {
	Repo         CategoryRepository
	AuditService audit.AuditService
}

func NewCategoryService(repo CategoryRepository, auditService audit.AuditService) CategoryService {
	return &CategoryServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *CategoryServiceImpl) validate(ctx context.Context, category *Category, selfID string) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return errs.Validation("category name is required")
	}
	existing, err := s.Repo.GetByName(ctx, category.Name)
	if err != nil {
		return errs.Unavailable(err, "category lookup")
	}
	if existing != nil && existing.ID.Hex() != selfID {
		return errs.Validation("a category named %q already exists", category.Name)
	}
	return nil
}

func (s *CategoryServiceImpl) Create(ctx context.Context, category *Category) error {
	if err := s.validate(ctx, category, ""); err != nil {
		return err
	}
	category.IsActive = true

	if err := s.Repo.Create(ctx, category); err != nil {
		return errs.Unavailable(err, "category create")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCategory, "approval_categories", category.ID.Hex(), map[string]common_models.Change{
		"category": {New: category},
	})
	return nil
}

func (s *CategoryServiceImpl) Get(ctx context.Context, id string) (*Category, error) {
	category, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Unavailable(err, "category lookup")
	}
	if category == nil {
		return nil, errs.NotFound("category %s", id)
	}
	return category, nil
}

func (s *CategoryServiceImpl) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	categories, err := s.Repo.List(ctx, activeOnly)
	if err != nil {
		return nil, errs.Unavailable(err, "category list")
	}
	return categories, nil
}

func (s *CategoryServiceImpl) Update(ctx context.Context, id string, category *Category) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validate(ctx, category, id); err != nil {
		return err
	}

	if err := s.Repo.Update(ctx, id, category); err != nil {
		return errs.Unavailable(err, "category update")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCategory, "approval_categories", id, map[string]common_models.Change{
		"category": {Old: existing, New: category},
	})
	return nil
}

func (s *CategoryServiceImpl) Deactivate(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return errs.Unavailable(err, "category deactivate")
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCategory, "approval_categories", id, map[string]common_models.Change{
		"is_active": {Old: existing.IsActive, New: false},
	})
	return nil
}
