package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// UserService resolves principals and carries the admin-facing account
// operations. It implements auth.IdentityResolver.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// CreateStaffInput describes an admin-created staff account.
type CreateStaffInput struct {
	Name     string
	Email    string
	Password string
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// Resolve maps a verified token identity to the stored account. Unknown
// identities are provisioned as citizens on first sign-in; known accounts get
// their profile fields refreshed from the token.
func (s *UserService) Resolve(ctx context.Context, identity auth.Identity) (*domain.User, error) {
	user, err := s.users.GetByExternalUID(ctx, identity.UID)
	if err == nil {
		if s.refreshProfile(user, identity) {
			if err := s.users.Update(ctx, user); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	user = &domain.User{
		ExternalUID: identity.UID,
		Name:        identity.Name,
		Email:       identity.Email,
		AvatarURL:   identity.Picture,
		Role:        domain.RoleCitizen,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// concurrent first sign-in; the other request won the insert
		existing, lookupErr := s.users.GetByExternalUID(ctx, identity.UID)
		if lookupErr == nil {
			return existing, nil
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("provisioned citizen account",
		zap.String("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

func (s *UserService) refreshProfile(user *domain.User, identity auth.Identity) bool {
	changed := false
	if identity.Name != "" && identity.Name != user.Name {
		user.Name = identity.Name
		changed = true
	}
	if identity.Picture != nil && (user.AvatarURL == nil || *user.AvatarURL != *identity.Picture) {
		user.AvatarURL = identity.Picture
		changed = true
	}
	return changed
}

// Get fetches a single user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns users matching the filter. Admin surface.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListStaff returns all staff accounts.
func (s *UserService) ListStaff(ctx context.Context) ([]domain.User, error) {
	role := domain.RoleStaff
	return s.List(ctx, repository.UserFilter{Role: &role})
}

// CreateStaff provisions a staff account with a password credential.
// Admin only.
func (s *UserService) CreateStaff(ctx context.Context, actor *domain.User, input CreateStaffInput) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ExternalUID:  "staff:" + email,
		Name:         name,
		Email:        email,
		Role:         domain.RoleStaff,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("staff account created",
		zap.String("staff_id", user.ID), zap.String("created_by", actor.ID))
	return user, nil
}

// SetBlocked blocks or unblocks an account. Admins cannot block themselves or
// other admins.
func (s *UserService) SetBlocked(ctx context.Context, actor *domain.User, userID string, blocked bool) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if actor.ID == userID {
		return nil, apperrors.NewValidationError("cannot change block state of own account", nil)
	}

	target, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin accounts cannot be blocked")
	}

	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		return nil, apperrors.MapError(err)
	}
	target.IsBlocked = blocked
	return target, nil
}

// Delete removes an account. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, userID string) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	if actor.ID == userID {
		return apperrors.NewValidationError("cannot delete own account", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}
