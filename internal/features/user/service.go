package user

import (
	"context"
	"strings"

	"go-approval/internal/common/errs"
	"go-approval/internal/common/models"
)

type UserService interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, page, limit int64) ([]models.User, error)
}

type UserServiceImpl struct {
	Repo UserRepository
}

func NewUserService(repo UserRepository) UserService {
	return &UserServiceImpl{Repo: repo}
}

func (s *UserServiceImpl) Create(ctx context.Context, user *models.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return errs.Validation("username is required")
	}
	if strings.TrimSpace(user.Name) == "" {
		return errs.Validation("name is required")
	}
	return s.Repo.Create(ctx, user)
}

func (s *UserServiceImpl) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("user %s", id)
	}
	return user, nil
}

func (s *UserServiceImpl) List(ctx context.Context, page, limit int64) ([]models.User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return s.Repo.List(ctx, limit, (page-1)*limit)
}
