package repository

import (
	"context"
	"errors"

	"devspaces/internal/workspace/domain"
)

// ErrNameTaken is returned when another workspace already uses the name (case-insensitively).
var ErrNameTaken = errors.New("workspace name already taken")

// Repository defines persistence for workspaces.
// Getters return (nil, nil) when the workspace does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Workspace, error)
	// Create inserts the workspace and makes its creator the sole admin member, atomically.
	Create(ctx context.Context, w *domain.Workspace) error
	Update(ctx context.Context, w *domain.Workspace) error
	// Delete removes the workspace; tasks, announcements, reports and memberships cascade.
	Delete(ctx context.Context, id string) error
	// ListForUser returns the workspaces the user is a member of.
	ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error)
	ListAll(ctx context.Context) ([]*domain.Summary, error)
}
