package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/davidashby/verba/internal/models"
	pkglogger "github.com/davidashby/verba/pkg/logger"
)

// AdminUserRepository is the wider user surface the admin service needs.
type AdminUserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Delete(ctx context.Context, id string) error
}

// SessionUnlocker clears a lock set by repeated failed logins.
type SessionUnlocker interface {
	Unlock(ctx context.Context, userID string) error
}

// UserService covers admin-only account administration. Role enforcement
// happens at the route layer; these methods assume an admin actor.
type UserService struct {
	users    AdminUserRepository
	sessions SessionUnlocker
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(users AdminUserRepository, sessions SessionUnlocker, logger *slog.Logger, audit *pkglogger.AuditLogger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		logger:   logger,
		audit:    audit,
	}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return userToResponse(user), nil
}

// Unlock resets a locked account so the user can log in again. This is the
// only way out of a lock; locks never expire on their own.
func (s *UserService) Unlock(ctx context.Context, adminID, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUserNotFound
		}
		s.logger.Error("failed to get user for unlock", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.Unlock(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUserNotFound
		}
		s.logger.Error("failed to unlock account", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("account unlocked", slog.String("user_id", userID), slog.String("admin_id", adminID))
	s.audit.LogAccountAction("account_unlocked", userID, "", map[string]string{"admin_id": adminID})
	return nil
}

// Delete removes a user account. Cascades take out the session record,
// enrollments, attempts, and progress.
func (s *UserService) Delete(ctx context.Context, adminID, userID string) error {
	if adminID == userID {
		// Admins cannot delete themselves; another admin has to do it.
		return models.ErrForbidden
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUserNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", userID), slog.String("admin_id", adminID))
	s.audit.LogAccountAction("user_deleted", userID, "", map[string]string{"admin_id": adminID})
	return nil
}
