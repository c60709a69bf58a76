package repository

import (
	"context"
	"errors"

	"devspaces/internal/membership/domain"
)

// ErrAlreadyMember is returned by Insert when the (workspace, user) pair already has a membership.
var ErrAlreadyMember = errors.New("user is already a member of this workspace")

// Repository defines persistence for workspace memberships.
type Repository interface {
	// Get returns the membership for the pair, or nil if the user is not a member.
	Get(ctx context.Context, workspaceID, userID string) (*domain.Membership, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Member, error)
	Insert(ctx context.Context, m *domain.Membership) error
	// UpsertIgnoreConflict inserts the membership unless the pair already exists, in which case
	// the existing row is left untouched. Safe to call concurrently.
	UpsertIgnoreConflict(ctx context.Context, m *domain.Membership) error
	DeleteForWorkspace(ctx context.Context, workspaceID string) error
}
