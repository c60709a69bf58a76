package repository

import (
	"context"

	"devspaces/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
