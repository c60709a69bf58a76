// Package producer publishes audit events to an external stream (e.g. Kafka).
package producer

import (
	"context"

	"devspaces/internal/audit/domain"
)

// Publisher writes audit events to a stream. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	// Publish sends one event. Implementations may block briefly; wrap in telemetry.AsyncSink from request paths.
	Publish(ctx context.Context, entry *domain.AuditLog) error
	// Close flushes and releases resources. Safe to call if already closed.
	Close() error
}
