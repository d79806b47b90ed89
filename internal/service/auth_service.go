package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/soportek/helpdesk/internal/auth"
	"github.com/soportek/helpdesk/internal/config"
	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/repository"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// AuthService handles registration and login.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Config       config.AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:  deps.UserRepo,
		tokens: deps.TokenManager,
		cfg:    deps.Config,
	}
}

// RegisterInput describes a signup request.
type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Role       domain.Role
	Department *domain.Department
}

// AuthResult carries the issued token and its subject.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account. Every signup waits for admission by an
// existing admin, with one exception: the very first admin account is
// admitted automatically so the system can be bootstrapped.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if firstName == "" || lastName == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if input.Role == domain.RoleStaff {
		if input.Department == nil || !input.Department.Valid() {
			return nil, apperrors.NewValidationError("staff accounts require a department", nil)
		}
	} else if input.Department != nil && !input.Department.Valid() {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": *input.Department})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	admitted := false
	if input.Role == domain.RoleAdmin {
		exists, err := s.users.AdmittedAdminExists(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		// Nobody can admit the first admin, so it admits itself.
		if !exists {
			admitted = true
		}
	}

	user := &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Department:   input.Department,
		Admitted:     admitted,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates by email or first name plus password and issues a
// token. Accounts awaiting admission cannot log in.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperrors.NewValidationError("login and password are required", nil)
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Admitted {
		return nil, apperrors.NewForbidden("account pending admission")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
