package auth

import (
	"context"

	"go-approval/internal/common/errs"
	"go-approval/internal/common/models"
	"go-approval/internal/features/audit"
	"go-approval/internal/features/user"
	"go-approval/pkg/utils"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, errs.Validation("username and password are required")
	}

	u, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, errs.Unavailable(err, "user lookup")
	}
	// TODO: store bcrypt hashes instead of comparing raw passwords
	if u == nil || u.Password != password {
		return "", nil, errs.Validation("invalid credentials")
	}
	if u.Status != "active" {
		return "", nil, errs.Validation("account is inactive")
	}

	roles := []string{}
	if u.Role != "" {
		roles = append(roles, u.Role)
	}

	token, err := utils.GenerateToken(u.ID, roles)
	if err != nil {
		return "", nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionLogin, "auth", u.ID.Hex(), nil)

	return token, u, nil
}
