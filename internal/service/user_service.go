package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soportek/helpdesk/internal/domain"
	"github.com/soportek/helpdesk/internal/repository"
	"github.com/soportek/helpdesk/internal/storage"
	apperrors "github.com/soportek/helpdesk/pkg/util"
)

// UserService covers account administration and profile management.
type UserService struct {
	users repository.UserRepository
	files storage.FileStore
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo  repository.UserRepository
	FileStore storage.FileStore
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{users: deps.UserRepo, files: deps.FileStore}
}

// UserUpdateInput is the admin-side account update payload. Nil fields
// are left untouched.
type UserUpdateInput struct {
	FirstName  *string
	LastName   *string
	Role       *domain.Role
	Department *domain.Department
	Admitted   *bool
}

// ListUsers returns accounts matching the filter. Admin only.
func (s *UserService) ListUsers(ctx context.Context, admin *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser returns a single account. Admin only.
func (s *UserService) GetUser(ctx context.Context, admin *domain.User, userID string) (*domain.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// AdmitUser activates a pending account. Idempotent.
func (s *UserService) AdmitUser(ctx context.Context, admin *domain.User, userID string) (*domain.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Admitted {
		return user, nil
	}
	user.Admitted = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser applies admin changes to an account. A role change to
// regular clears the department; a change to staff requires one. The
// admission flag only moves when the request sets it explicitly.
func (s *UserService) UpdateUser(ctx context.Context, admin *domain.User, userID string, input UserUpdateInput) (*domain.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, apperrors.NewValidationError("first name cannot be empty", nil)
		}
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, apperrors.NewValidationError("last name cannot be empty", nil)
		}
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		user.Role = *input.Role
	}
	if input.Department != nil {
		if !input.Department.Valid() {
			return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": *input.Department})
		}
		user.Department = input.Department
	}
	if input.Admitted != nil {
		user.Admitted = *input.Admitted
	}

	if user.Role == domain.RoleRegular {
		user.Department = nil
	}
	if user.Role == domain.RoleStaff && user.Department == nil {
		return nil, apperrors.NewValidationError("staff accounts require a department", nil)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, admin *domain.User, userID string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if admin.ID == userID {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	if user.ProfilePhoto != nil {
		_ = s.files.Delete(*user.ProfilePhoto)
	}
	return nil
}

// UpdateProfilePhoto replaces the caller's profile photo. The upload is
// validated like ticket attachments and the previous file is removed.
func (s *UserService) UpdateProfilePhoto(ctx context.Context, actor *domain.User, upload AttachmentUpload) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := validateUploads([]AttachmentUpload{upload}); err != nil {
		return nil, err
	}

	key, err := s.files.Save(upload.FileName, upload.Data)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	old := actor.ProfilePhoto
	actor.ProfilePhoto = &key
	if err := s.users.Update(ctx, actor); err != nil {
		_ = s.files.Delete(key)
		return nil, apperrors.MapError(err)
	}
	if old != nil {
		_ = s.files.Delete(*old)
	}
	return actor, nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
