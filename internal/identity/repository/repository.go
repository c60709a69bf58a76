package repository

import (
	"context"
	"errors"

	"devspaces/internal/identity/domain"
	userdomain "devspaces/internal/user/domain"
)

// ErrEmailTaken is returned by Register when the email already belongs to an account.
var ErrEmailTaken = errors.New("email already registered")

// RoleFor picks the global role of a new account given the number of accounts that existed before it.
type RoleFor func(existing int64) userdomain.Role

// Repository defines persistence for login identities.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	// Register creates the user and its identity atomically. The user count read by roleFor and
	// the insert happen under one lock, so two concurrent first signups cannot both become owner.
	// u.Role is set from roleFor before insert.
	Register(ctx context.Context, u *userdomain.User, i *domain.Identity, roleFor RoleFor) error
}
