package repository

import (
	"context"

	"devspaces/internal/user/domain"
)

// Repository defines persistence for user accounts.
// Getters return (nil, nil) when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
	// UpdateRole replaces the global role; the admin flag follows from it.
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateUsername(ctx context.Context, id, username string) error
	SetSubscription(ctx context.Context, id string, sub domain.Subscription) error
	SetNotifyAnnouncements(ctx context.Context, id string, notify bool) error
	// Delete removes the user; memberships, identities and assignments cascade.
	Delete(ctx context.Context, id string) error
}
