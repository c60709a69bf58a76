package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"devspaces/internal/platform/httpx"
)

// idleAfter is how long a client key may go unseen before its limiter is dropped.
const idleAfter = 3 * time.Minute

// RateLimiter is a per-client-IP token bucket for credential endpoints.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*limitedClient
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client IP, spread over the minute, with burst.
// Returns nil when perMinute is not positive.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*limitedClient),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		l.sweepLocked(now)
	}
	c, ok := l.clients[key]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > idleAfter {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

// Middleware rejects over-limit clients with 429. It reads the client IP from the request scope.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(l.limit))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientIP(r.Context())
		if key == "unknown" {
			key = remoteHost(r.RemoteAddr)
		}
		if !l.Allow(key) {
			w.Header().Set("Retry-After", retryAfter)
			httpx.Fail(w, http.StatusTooManyRequests, "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
