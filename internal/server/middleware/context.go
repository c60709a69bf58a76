package middleware

import "context"

// SessionUserKey is the session key holding the signed-in user id.
const SessionUserKey = "user_id"

type contextKey struct{ name string }

var scopeKey = contextKey{"request_scope"}

// scope is per-request identity state. It is a pointer so that handlers and services
// further down the chain can fill in what the outer middleware cannot know
// (the user after login, the workspace after name resolution).
type scope struct {
	userID      string
	workspaceID string
	clientIP    string
}

// WithScope installs an empty request scope carrying the client IP.
func WithScope(ctx context.Context, clientIP string) context.Context {
	if _, ok := ctx.Value(scopeKey).(*scope); ok {
		return ctx
	}
	return context.WithValue(ctx, scopeKey, &scope{clientIP: clientIP})
}

// WithIdentity returns a context whose request scope carries userID.
func WithIdentity(ctx context.Context, userID string) context.Context {
	ctx = WithScope(ctx, "")
	ctx.Value(scopeKey).(*scope).userID = userID
	return ctx
}

// SetUserID records the authenticated user in an existing scope. No-op without a scope.
func SetUserID(ctx context.Context, userID string) {
	if s, ok := ctx.Value(scopeKey).(*scope); ok {
		s.userID = userID
	}
}

// SetWorkspaceID records the workspace a request acted on. No-op without a scope.
func SetWorkspaceID(ctx context.Context, workspaceID string) {
	if s, ok := ctx.Value(scopeKey).(*scope); ok {
		s.workspaceID = workspaceID
	}
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(scopeKey).(*scope)
	if !ok || s.userID == "" {
		return "", false
	}
	return s.userID, true
}

// GetWorkspaceID returns the workspace_id from context and true if set; otherwise "", false.
func GetWorkspaceID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(scopeKey).(*scope)
	if !ok || s.workspaceID == "" {
		return "", false
	}
	return s.workspaceID, true
}

// ClientIP returns the client IP recorded in the scope, or "unknown".
func ClientIP(ctx context.Context) string {
	if s, ok := ctx.Value(scopeKey).(*scope); ok && s.clientIP != "" {
		return s.clientIP
	}
	return "unknown"
}
