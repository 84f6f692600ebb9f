package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// UserService exposes user profiles.
type UserService struct {
	users  driven.UserStore
	logger *slog.Logger
}

func NewUserService(users driven.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetByHandle returns an active user's profile.
func (s *UserService) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	user, err := s.users.GetActiveByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes the caller's display name and bio.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, displayName, bio string) (*model.User, error) {
	user, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.DisplayName = displayName
	user.Bio = htmlSanitizer.Sanitize(bio)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", userID, err)
	}
	return user, nil
}

// SetRole changes a user's permission level.
func (s *UserService) SetRole(ctx context.Context, handle string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	user, err := s.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user role: %w", err)
	}
	s.logger.Info("user role changed",
		slog.String("handle", user.Handle),
		slog.String("role", string(role)))
	return user, nil
}
