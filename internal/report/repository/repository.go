package repository

import (
	"context"
	"time"

	"devspaces/internal/report/domain"
)

// Repository defines persistence for workspace reports.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Create(ctx context.Context, r *domain.Report) error
	// ListAll returns every report with workspace and reporter details, newest first.
	ListAll(ctx context.Context) ([]*domain.Summary, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error
}
