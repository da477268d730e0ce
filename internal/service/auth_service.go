package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/pkg/auth"
	"github.com/diagnosis/marketinn/pkg/logger"
	"github.com/diagnosis/marketinn/pkg/metrics"
	"github.com/google/uuid"
)

// errAuthRequired is the single answer for every rejected token so callers
// cannot tell which check failed.
var errAuthRequired = &domain.PublicError{Msg: "authentication required", Kind: domain.ErrUnauthorized}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users  repo.UserRepository
	tokens *auth.TokenManager
	hasher *auth.Hasher
}

func NewAuthService(users repo.UserRepository, tokens *auth.TokenManager, hasher *auth.Hasher) *AuthService {
	if hasher == nil {
		hasher = auth.NewHasher()
	}
	return &AuthService{users: users, tokens: tokens, hasher: hasher}
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (res *LoginResult, err error) {
	defer func() { metrics.ObserveLogin(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		logger.DebugContext(ctx, "Login rejected", "reason", "unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	valid, err := s.hasher.Compare(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		logger.DebugContext(ctx, "Login rejected", "reason", "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.DebugContext(ctx, "Login rejected", "reason", "account inactive", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.NewAccessToken(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}

// Register creates a user. Only an authenticated admin caller may create an
// admin; the caller, when present, is recorded as creator.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest, caller *domain.User) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleAdmin && (caller == nil || !caller.IsAdmin()) {
		return nil, domain.ErrAdminRequired
	}
	active := true
	if req.IsActive != nil && caller != nil && caller.IsAdmin() {
		active = *req.IsActive
	}
	return s.create(ctx, req, active, caller)
}

func (s *AuthService) create(ctx context.Context, req domain.RegisterRequest, active bool, caller *domain.User) (*domain.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     active,
	}
	if caller != nil {
		id := caller.ID
		u.CreatedByID = &id
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "User created", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Authenticate resolves a bearer token to a live, active user. The user is
// reloaded on every call so deactivation takes effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		logger.DebugContext(ctx, "Token rejected", "reason", "invalid token", "error", err)
		return nil, errAuthRequired
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		logger.DebugContext(ctx, "Token rejected", "reason", "bad subject")
		return nil, errAuthRequired
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		logger.DebugContext(ctx, "Token rejected", "reason", "unknown user", "user_id", id)
		return nil, errAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		logger.DebugContext(ctx, "Token rejected", "reason", "account inactive", "user_id", id)
		return nil, errAuthRequired
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error) {
	upd.Normalize()
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	changes, err := s.changes(upd)
	if err != nil {
		return nil, err
	}
	return s.users.Update(ctx, id, changes)
}

func (s *AuthService) changes(upd domain.ProfileUpdate) (domain.UserChanges, error) {
	c := domain.UserChanges{Name: upd.Name, Email: upd.Email}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return c, err
		}
		c.PasswordHash = &hash
	}
	return c, nil
}

type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the initial administrator when no admin exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	n, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if seed.Email == "" || seed.Password == "" {
		logger.WarnContext(ctx, "No admin user exists and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		return false, nil
	}
	name := seed.Name
	if name == "" {
		name = "Administrator"
	}
	req := domain.RegisterRequest{Name: name, Email: seed.Email, Password: seed.Password, Role: domain.RoleAdmin}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return false, fmt.Errorf("admin seed: %w", err)
	}
	if _, err := s.create(ctx, req, true, nil); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	logger.InfoContext(ctx, "Initial admin user created", "email", req.Email)
	return true, nil
}
