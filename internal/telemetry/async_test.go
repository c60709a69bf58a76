package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devspaces/internal/audit/domain"
)

// mockPublisher implements producer.Publisher for tests.
type mockPublisher struct {
	mu         sync.Mutex
	entries    []*domain.AuditLog
	publishErr error
	delay      time.Duration
	closed     bool
}

func (m *mockPublisher) Publish(ctx context.Context, entry *domain.AuditLog) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.publishErr
}

func (m *mockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockPublisher) snapshot() ([]*domain.AuditLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.entries...), m.closed
}

type recordingSink struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingSink) Emit(_ context.Context, entry *domain.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, entry.Action)
}

func TestNewAsyncSink_NilPublisher(t *testing.T) {
	if s := NewAsyncSink(nil, nil); s != nil {
		t.Fatalf("NewAsyncSink(nil) = %v, want nil", s)
	}
	var s *AsyncSink
	// nil sink is inert
	s.Emit(context.Background(), &domain.AuditLog{Action: "x"})
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestAsyncSink_PublishesCopy(t *testing.T) {
	pub := &mockPublisher{}
	s := NewAsyncSink(pub, nil)

	entry := &domain.AuditLog{ID: "a-1", WorkspaceID: "ws-1", Action: "task_created"}
	s.Emit(context.Background(), entry)
	entry.Action = "mutated"
	s.Emit(context.Background(), nil)

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, closed := pub.snapshot()
	if len(got) != 1 {
		t.Fatalf("published %d entries, want 1", len(got))
	}
	if got[0].Action != "task_created" || got[0].WorkspaceID != "ws-1" {
		t.Errorf("published %+v", got[0])
	}
	if !closed {
		t.Error("publisher not closed")
	}
}

func TestAsyncSink_IgnoresRequestCancellation(t *testing.T) {
	pub := &mockPublisher{delay: 20 * time.Millisecond}
	s := NewAsyncSink(pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Emit(ctx, &domain.AuditLog{Action: "user_added"})
	cancel()

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, _ := pub.snapshot(); len(got) != 1 {
		t.Errorf("published %d entries, want 1", len(got))
	}
}

func TestAsyncSink_PublishErrorIsSwallowed(t *testing.T) {
	pub := &mockPublisher{publishErr: errors.New("broker unavailable")}
	s := NewAsyncSink(pub, nil)
	s.Emit(context.Background(), &domain.AuditLog{Action: "role_changed"})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, _ := pub.snapshot(); len(got) != 1 {
		t.Errorf("published %d entries, want 1", len(got))
	}
}

func TestAsyncSink_TimeoutBoundsPublish(t *testing.T) {
	pub := &mockPublisher{delay: time.Second}
	s := NewAsyncSink(pub, nil)
	s.timeout = 10 * time.Millisecond

	s.Emit(context.Background(), &domain.AuditLog{Action: "slow"})
	start := time.Now()
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Close waited %v; publish timeout not applied", elapsed)
	}
	if got, _ := pub.snapshot(); len(got) != 0 {
		t.Errorf("timed-out publish recorded %d entries", len(got))
	}
}

func TestFanOut(t *testing.T) {
	if FanOut() != nil || FanOut(nil, nil) != nil {
		t.Error("FanOut of nothing should be nil")
	}

	a := &recordingSink{}
	if got := FanOut(nil, a); got != a {
		t.Errorf("FanOut with one sink = %v, want the sink itself", got)
	}

	b := &recordingSink{}
	sink := FanOut(a, nil, b)
	sink.Emit(context.Background(), &domain.AuditLog{Action: "report_created"})
	for name, r := range map[string]*recordingSink{"a": a, "b": b} {
		if len(r.actions) != 1 || r.actions[0] != "report_created" {
			t.Errorf("sink %s got %v", name, r.actions)
		}
	}
}
