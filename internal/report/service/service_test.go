package service

import (
	"context"
	"errors"
	"testing"

	identitydomain "devspaces/internal/identity/domain"
	"devspaces/internal/memstore"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	"devspaces/internal/report/domain"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
	workspaceservice "devspaces/internal/workspace/service"
)

func TestCreate(t *testing.T) {
	s := memstore.New()
	engine := rbac.NewEngine(s.Users(), s.Memberships(), nil)
	for _, id := range []string{"alice", "bob"} {
		u := &userdomain.User{ID: id, Username: id, Email: id + "@example.com"}
		if err := s.Identities().Register(context.Background(), u, &identitydomain.Identity{ID: "i-" + id, UserID: id},
			func(int64) userdomain.Role { return userdomain.RoleUser }); err != nil {
			t.Fatal(err)
		}
	}
	alice := middleware.WithIdentity(context.Background(), "alice")
	bob := middleware.WithIdentity(context.Background(), "bob")
	if _, err := workspaceservice.NewService(engine, s.Workspaces(), s.Memberships(), s.Users(), nil).Create(alice, "Alpha", ""); err != nil {
		t.Fatal(err)
	}
	svc := NewService(engine, s.Workspaces(), s.Reports())

	testCases := []struct {
		name      string
		ctx       context.Context
		workspace string
		reason    string
		wantErr   error
	}{
		{"anonymous", context.Background(), "Alpha", "spam", apperr.ErrUnauthenticated},
		{"missing reason", bob, "Alpha", "  ", apperr.ErrInvalidInput},
		{"missing workspace", bob, "Nope", "spam", apperr.ErrNotFound},
		{"non-member reports", bob, "alpha", "spam", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := svc.Create(tc.ctx, tc.workspace, tc.reason, "details")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r.Status != domain.StatusPending || r.ReporterID != "bob" {
				t.Errorf("report = %+v", r)
			}
			if m, _ := s.Memberships().Get(context.Background(), r.WorkspaceID, "bob"); m != nil {
				t.Error("reporting must not create a membership")
			}
		})
	}
}
