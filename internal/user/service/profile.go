package service

import (
	"context"
	"strings"

	"devspaces/internal/platform/apperr"
	"devspaces/internal/user/domain"
)

const maxUsernameLength = 50

// RequesterResolver resolves the signed-in account.
type RequesterResolver interface {
	Requester(ctx context.Context) (*domain.User, error)
}

// ProfileRepo is the user persistence the profile service writes to.
type ProfileRepo interface {
	UpdateUsername(ctx context.Context, id, username string) error
	SetNotifyAnnouncements(ctx context.Context, id string, notify bool) error
}

// ProfileService lets the signed-in user read and edit their own account.
type ProfileService struct {
	authz RequesterResolver
	users ProfileRepo
}

func NewProfileService(authz RequesterResolver, users ProfileRepo) *ProfileService {
	return &ProfileService{authz: authz, users: users}
}

// Me returns the caller's account.
func (s *ProfileService) Me(ctx context.Context) (*domain.User, error) {
	return s.authz.Requester(ctx)
}

// UpdateUsername renames the caller.
func (s *ProfileService) UpdateUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.InvalidInput("a username is required")
	}
	if len(username) > maxUsernameLength {
		return nil, apperr.InvalidInput("username must be at most 50 characters")
	}
	if err := s.users.UpdateUsername(ctx, u.ID, username); err != nil {
		return nil, apperr.Storage("update username", err)
	}
	u.Username = username
	return u, nil
}

// SetNotifyAnnouncements stores whether the caller wants announcement notifications.
func (s *ProfileService) SetNotifyAnnouncements(ctx context.Context, notify bool) (*domain.User, error) {
	u, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetNotifyAnnouncements(ctx, u.ID, notify); err != nil {
		return nil, apperr.Storage("update preferences", err)
	}
	u.NotifyAnnouncements = notify
	return u, nil
}
