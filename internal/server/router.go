// Package server assembles the HTTP router: chi middleware, identity resolution,
// auditing, telemetry and the per-context handlers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"devspaces/internal/audit"
	"devspaces/internal/platform/httpx"
	"devspaces/internal/server/middleware"
)

// Registrar mounts a handler's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps holds the router's collaborators.
type Deps struct {
	Logger   *slog.Logger
	Sessions *scs.SessionManager
	// Tokens validates bearer tokens. Nil disables bearer authentication.
	Tokens middleware.TokenValidator
	// Audit records mutating requests. Nil disables auditing.
	Audit          audit.AuditLogger
	AllowedOrigins []string
	// TrustedProxy takes the client IP from proxy headers instead of the peer address.
	TrustedProxy bool
	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Handlers       []Registrar
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Sessions == nil {
		d.Sessions = scs.New()
	}
	if d.TracerProvider == nil {
		d.TracerProvider = otel.GetTracerProvider()
	}
	if d.MeterProvider == nil {
		d.MeterProvider = otel.GetMeterProvider()
	}
	telemetry, err := middleware.Telemetry(d.TracerProvider, d.MeterProvider)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustedProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recovery(d.Logger))
	r.Use(telemetry)
	r.Use(corsHandler(d.AllowedOrigins))
	r.Use(d.Sessions.LoadAndSave)
	r.Use(middleware.Scope)
	r.Use(middleware.Identity(d.Tokens, d.Sessions))
	r.Use(middleware.Audit(d.Audit))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	for _, h := range d.Handlers {
		h.Register(r)
	}
	return r, nil
}

// corsHandler allows credentials only for an explicit origin list; a wildcard
// admits every origin without cookies.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			opts.AllowCredentials = false
			break
		}
	}
	return cors.Handler(opts)
}
