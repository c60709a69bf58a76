// Package handler serves the readiness probe.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/platform/httpx"
)

const checkTimeout = 2 * time.Second

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the admin policy still evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler reports SERVING when every configured dependency answers.
type Handler struct {
	db     Pinger
	policy PolicyChecker
	log    *slog.Logger
}

// NewHandler returns a health handler. db and policy may be nil; nil checks are skipped.
func NewHandler(db Pinger, policy PolicyChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{db: db, policy: policy, log: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.check)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	if h.db != nil {
		checks["database"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			h.log.WarnContext(ctx, "health: database ping failed", "error", err)
			checks["database"] = "unavailable"
			healthy = false
		}
	}
	if h.policy != nil {
		checks["policy"] = "ok"
		if err := h.policy.HealthCheck(ctx); err != nil {
			h.log.WarnContext(ctx, "health: policy check failed", "error", err)
			checks["policy"] = "unavailable"
			healthy = false
		}
	}
	if !healthy {
		httpx.Write(w, http.StatusServiceUnavailable, httpx.Fields{"status": "NOT_SERVING", "checks": checks})
		return
	}
	httpx.OK(w, httpx.Fields{"status": "SERVING", "checks": checks})
}
