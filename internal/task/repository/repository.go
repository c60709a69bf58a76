package repository

import (
	"context"

	"devspaces/internal/task/domain"
)

// Repository defines persistence for tasks and their assignment.
type Repository interface {
	// GetByID returns the task with its current assignee, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Task, error)
	// Assign replaces any prior assignment of the task with a; last writer wins.
	Assign(ctx context.Context, a *domain.Assignment) error
	ListAssignments(ctx context.Context, taskID string) ([]*domain.Assignment, error)
}
