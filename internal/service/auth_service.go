package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/internal-crm/internal/auth"
	"github.com/spec-kit/internal-crm/internal/config"
	"github.com/spec-kit/internal-crm/internal/domain"
	"github.com/spec-kit/internal-crm/internal/repository"
	apperrors "github.com/spec-kit/internal-crm/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new resident account.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleResident,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates any account and returns a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// ListUsers returns accounts for the admin directory, optionally filtered by
// role, ordered by name.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may list users")
	}
	if role != nil && !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *role})
	}
	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SeedDemoAccounts creates the demo admin/staff/resident trio. Existing
// accounts are left untouched.
func (s *AuthService) SeedDemoAccounts(ctx context.Context) ([]domain.User, error) {
	hash, err := auth.HashPassword("password123", s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	seeds := []domain.User{
		{Name: "Admin User", Email: "admin@example.com", Role: domain.RoleAdmin},
		{Name: "Staff User", Email: "staff@example.com", Role: domain.RoleStaff},
		{Name: "Resident User", Email: "resident@example.com", Role: domain.RoleResident},
	}

	out := make([]domain.User, 0, len(seeds))
	for _, seed := range seeds {
		seed.PasswordHash = hash
		if err := s.users.UpsertByEmail(ctx, &seed); err != nil {
			return nil, apperrors.MapError(err)
		}
		out = append(out, seed)
	}
	return out, nil
}
