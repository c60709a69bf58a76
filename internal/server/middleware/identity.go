package middleware

import (
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

const bearerPrefix = "bearer "

// TokenValidator validates bearer access tokens and returns the subject.
type TokenValidator interface {
	ValidateAccess(token string) (userID string, err error)
}

// Identity resolves the caller and records it in the request scope. A valid bearer token
// wins; otherwise the session's user id is used. Unresolved requests pass through
// anonymous and are rejected by the services that need an identity. tokens may be nil.
// It must run inside sessions.LoadAndSave and after Scope.
func Identity(tokens TokenValidator, sessions *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token := extractBearer(r); token != "" && tokens != nil {
				if userID, err := tokens.ValidateAccess(token); err == nil {
					SetUserID(ctx, userID)
					next.ServeHTTP(w, r)
					return
				}
			}
			if userID := sessions.GetString(ctx, SessionUserKey); userID != "" {
				SetUserID(ctx, userID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
