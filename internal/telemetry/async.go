// Package telemetry forwards audit events to best-effort sinks outside the request path.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"devspaces/internal/audit"
	"devspaces/internal/audit/domain"
	"devspaces/internal/telemetry/producer"
)

// emitTimeout is the max time allowed for a single async publish.
const emitTimeout = 5 * time.Second

// AsyncSink adapts a producer.Publisher to audit.EventSink. Each Emit publishes in its own
// goroutine with emitTimeout so the request is never blocked by the stream; failures are logged.
type AsyncSink struct {
	pub     producer.Publisher
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSink returns nil when pub is nil.
func NewAsyncSink(pub producer.Publisher, logger *slog.Logger) *AsyncSink {
	if pub == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{pub: pub, log: logger, timeout: emitTimeout}
}

// Emit copies entry and publishes it in the background. The request context is not used for the
// publish so a finished request does not cancel it.
func (s *AsyncSink) Emit(ctx context.Context, entry *domain.AuditLog) {
	if s == nil || entry == nil {
		return
	}
	e := *entry
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.pub.Publish(pubCtx, &e); err != nil {
			s.log.Warn("audit stream publish failed", "action", e.Action, "workspace_id", e.WorkspaceID, "error", err)
		}
	}()
}

// Close waits for in-flight publishes (bounded by ctx) and closes the publisher.
func (s *AsyncSink) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("audit stream drain timed out", "error", ctx.Err())
	}
	return s.pub.Close()
}

type fanOut []audit.EventSink

func (f fanOut) Emit(ctx context.Context, entry *domain.AuditLog) {
	for _, s := range f {
		s.Emit(ctx, entry)
	}
}

// FanOut combines sinks into one, dropping nils. Returns nil when no sink remains and the
// single sink unchanged when only one does.
func FanOut(sinks ...audit.EventSink) audit.EventSink {
	var out fanOut
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}
