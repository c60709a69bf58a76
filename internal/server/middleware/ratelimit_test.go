package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRateLimiter_Disabled(t *testing.T) {
	if l := NewRateLimiter(0, 5); l != nil {
		t.Fatalf("NewRateLimiter(0) = %v, want nil", l)
	}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 2)
	l.now = func() time.Time { return now }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("third immediate request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}
	now = now.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("one token should refill after a second at 60/min")
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 1)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(idleAfter + 2*time.Minute)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Error("idle client should be swept")
	}
	if _, ok := l.clients["10.0.0.2"]; !ok {
		t.Error("active client should remain")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, 1)
	h := Scope(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("198.51.100.1:1000"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := send("198.51.100.1:2000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if rec := send("198.51.100.2:1000"); rec.Code != http.StatusNoContent {
		t.Errorf("different client = %d", rec.Code)
	}
}
