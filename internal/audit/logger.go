package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"devspaces/internal/audit/domain"
	auditrepo "devspaces/internal/audit/repository"
)

// IPExtractor returns the client IP for the request carried by ctx.
type IPExtractor func(context.Context) string

// EventSink receives a copy of every recorded audit event (e.g. an OTel log exporter).
type EventSink interface {
	Emit(ctx context.Context, entry *domain.AuditLog)
}

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, workspaceID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository, an optional sink and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	sink        EventSink
	ipExtractor IPExtractor
	log         *slog.Logger
}

// NewLogger returns an AuditLogger that persists to repo and forwards to sink.
// Any of repo, sink, ipExtractor may be nil; a nil ipExtractor records the IP as "unknown".
func NewLogger(repo auditrepo.Repository, sink EventSink, ipExtractor IPExtractor, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, sink: sink, ipExtractor: ipExtractor, log: logger}
}

// LogEvent writes one audit log entry. An empty workspaceID is recorded as domain.SystemScope.
func (l *Logger) LogEvent(ctx context.Context, workspaceID, userID, action, resource, metadata string) {
	if l.repo == nil && l.sink == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if workspaceID == "" {
		workspaceID = domain.SystemScope
	}
	entry := &domain.AuditLog{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		IP:          ip,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.ErrorContext(ctx, "audit: failed to log event", "action", action, "resource", resource, "error", err)
		}
	}
	if l.sink != nil {
		l.sink.Emit(ctx, entry)
	}
}
