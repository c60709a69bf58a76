package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"devspaces/internal/audit/domain"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = time.Minute
)

// BreakerPublisher wraps a Publisher with a circuit breaker so an unreachable broker
// fails fast instead of tying up a goroutine per audit event for the full write timeout.
type BreakerPublisher struct {
	inner   Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps inner. It opens after maxFailures consecutive failures (0 uses the default)
// and probes again after the open timeout.
func WithBreaker(inner Publisher, maxFailures uint32, logger *slog.Logger) *BreakerPublisher {
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "audit-stream",
		MaxRequests: 1,
		Interval:    defaultBreakerInterval,
		Timeout:     defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerPublisher{inner: inner, breaker: cb}
}

// Publish routes through the breaker.
func (p *BreakerPublisher) Publish(ctx context.Context, entry *domain.AuditLog) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.inner.Publish(ctx, entry)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("audit stream circuit open: %w", err)
	}
	return err
}

// Close closes the wrapped publisher.
func (p *BreakerPublisher) Close() error {
	return p.inner.Close()
}

// State reports the breaker state for health and logs.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.breaker.State()
}
