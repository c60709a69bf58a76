package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"devspaces/internal/audit/domain"
)

const auditScope = "devspaces.audit"

// AuditSink forwards audit entries to an OTel logger as log records.
// A nil *AuditSink is valid and drops everything.
type AuditSink struct {
	logger otellog.Logger
}

// NewAuditSink returns a sink emitting through provider. Returns nil when provider is nil.
func NewAuditSink(provider *sdklog.LoggerProvider) *AuditSink {
	if provider == nil {
		return nil
	}
	return &AuditSink{logger: provider.Logger(auditScope)}
}

// NewAuditSinkWithLogger returns a sink emitting through logger.
func NewAuditSinkWithLogger(logger otellog.Logger) *AuditSink {
	return &AuditSink{logger: logger}
}

// Emit converts entry into a log record. Metadata becomes the body; identity fields become attributes.
func (s *AuditSink) Emit(ctx context.Context, entry *domain.AuditLog) {
	if s == nil || s.logger == nil || entry == nil {
		return
	}
	var rec otellog.Record
	ts := entry.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if entry.Metadata != "" {
		rec.SetBody(otellog.StringValue(entry.Metadata))
	}
	attrs := []struct{ key, value string }{
		{"workspace_id", entry.WorkspaceID},
		{"user_id", entry.UserID},
		{"action", entry.Action},
		{"resource", entry.Resource},
		{"ip", entry.IP},
	}
	for _, a := range attrs {
		if a.value != "" {
			rec.AddAttributes(otellog.String(a.key, a.value))
		}
	}
	s.logger.Emit(ctx, rec)
}
