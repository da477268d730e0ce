package service

import (
	"context"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/pkg/logger"
	"github.com/google/uuid"
)

// UserService is the admin user-management surface. Role checks happen in
// the HTTP layer; the service only guards self-destructive changes.
type UserService struct {
	users repo.UserRepository
	auth  *AuthService
}

func NewUserService(users repo.UserRepository, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	us, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if us == nil {
		us = []domain.User{}
	}
	return us, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, req domain.RegisterRequest, caller *domain.User) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return s.auth.create(ctx, req, active, caller)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate, caller *domain.User) (*domain.User, error) {
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	if caller != nil && caller.ID == id {
		if upd.IsActive != nil && !*upd.IsActive {
			return nil, domain.NewValidationError("cannot deactivate your own account")
		}
		if upd.Role != nil && *upd.Role != domain.RoleAdmin {
			return nil, domain.NewValidationError("cannot remove your own admin role")
		}
	}
	changes, err := s.auth.changes(upd.ProfileUpdate)
	if err != nil {
		return nil, err
	}
	changes.Role = upd.Role
	changes.IsActive = upd.IsActive
	u, err := s.users.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "User updated", "user_id", u.ID)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID, caller *domain.User) error {
	if caller != nil && caller.ID == id {
		return domain.NewValidationError("cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}
