package middleware

import (
	"context"
	"testing"
)

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1")
	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("GetUserID = %q, %v, want user-1, true", userID, ok)
	}
	if _, ok := GetWorkspaceID(ctx); ok {
		t.Error("workspace_id should not be set")
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID on empty context should return false")
	}
	if _, ok := GetWorkspaceID(ctx); ok {
		t.Error("GetWorkspaceID on empty context should return false")
	}
	if ip := ClientIP(ctx); ip != "unknown" {
		t.Errorf("ClientIP = %q, want unknown", ip)
	}
	// Setters without a scope must not panic.
	SetUserID(ctx, "user-1")
	SetWorkspaceID(ctx, "ws-1")
}

func TestScope_SettersVisibleToOuterContext(t *testing.T) {
	outer := WithScope(context.Background(), "10.0.0.1")
	inner := context.WithValue(outer, contextKey{"other"}, 1)

	SetUserID(inner, "user-2")
	SetWorkspaceID(inner, "ws-2")

	if got, _ := GetUserID(outer); got != "user-2" {
		t.Errorf("GetUserID(outer) = %q, want user-2", got)
	}
	if got, _ := GetWorkspaceID(outer); got != "ws-2" {
		t.Errorf("GetWorkspaceID(outer) = %q, want ws-2", got)
	}
	if got := ClientIP(outer); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want 10.0.0.1", got)
	}
}

func TestWithScope_Idempotent(t *testing.T) {
	ctx := WithScope(context.Background(), "10.0.0.1")
	again := WithScope(ctx, "10.0.0.2")
	if again != ctx {
		t.Error("WithScope should reuse an existing scope")
	}
	if got := ClientIP(again); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want first IP", got)
	}
}
