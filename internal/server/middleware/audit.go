package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"devspaces/internal/audit"
)

// auditMetadata is the JSON stored in AuditLog.Metadata for request-derived events.
type auditMetadata struct {
	Path   string `json:"path"`
	Status int    `json:"status"`
}

// Audit records one audit event for every successful mutating request made by an
// identified user. Action and resource come from the matched route pattern. Recording is
// best-effort and never changes the response. logger may be nil to disable auditing.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusBadRequest {
				return
			}
			ctx := r.Context()
			userID, ok := GetUserID(ctx)
			if !ok {
				return
			}
			pattern := r.URL.Path
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			ar := audit.ParseRoute(r.Method, pattern)
			workspaceID, _ := GetWorkspaceID(ctx)
			meta, _ := json.Marshal(auditMetadata{Path: r.URL.Path, Status: status})
			logger.LogEvent(ctx, workspaceID, userID, ar.Action, ar.Resource, string(meta))
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
