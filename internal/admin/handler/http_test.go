package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	announcementdomain "devspaces/internal/announcement/domain"
	auditdomain "devspaces/internal/audit/domain"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	reportdomain "devspaces/internal/report/domain"
	userdomain "devspaces/internal/user/domain"
	workspacedomain "devspaces/internal/workspace/domain"
)

type mockAdmin struct {
	toggled    *bool
	auditQuery struct {
		workspace     string
		limit, offset int32
	}
}

func (m *mockAdmin) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	return []*userdomain.User{{ID: "u1", Role: userdomain.RoleOwner}}, nil
}

func (m *mockAdmin) SetRole(ctx context.Context, targetID, roleName string) (*userdomain.User, error) {
	if roleName == "owner" {
		return nil, apperr.Forbidden(rbac.ReasonOwnerOnly)
	}
	role, err := userdomain.ParseRole(roleName)
	if err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	return &userdomain.User{ID: targetID, Role: role}, nil
}

func (m *mockAdmin) ToggleAdmin(ctx context.Context, targetID string, admin bool) (*userdomain.User, error) {
	m.toggled = &admin
	return &userdomain.User{ID: targetID, Role: userdomain.RoleModerator}, nil
}

func (m *mockAdmin) DeleteUser(ctx context.Context, targetID string) error {
	return apperr.Forbidden(rbac.ReasonDeleteSelf)
}

func (m *mockAdmin) SetSubscription(ctx context.Context, targetID, tier string) (*userdomain.User, error) {
	return &userdomain.User{ID: targetID, Subscription: userdomain.Subscription(tier)}, nil
}

func (m *mockAdmin) ListWorkspaces(ctx context.Context) ([]*workspacedomain.Summary, error) {
	return []*workspacedomain.Summary{{
		Workspace:       workspacedomain.Workspace{ID: "w1", Name: "alpha"},
		CreatorUsername: "owner",
	}}, nil
}

func (m *mockAdmin) DeleteWorkspace(ctx context.Context, id string) error {
	if id != "w1" {
		return apperr.NotFound("workspace not found")
	}
	return nil
}

func (m *mockAdmin) ListReports(ctx context.Context) ([]*reportdomain.Summary, error) {
	return []*reportdomain.Summary{{
		Report:        reportdomain.Report{ID: "r1", Status: reportdomain.StatusPending},
		WorkspaceName: "alpha",
	}}, nil
}

func (m *mockAdmin) UpdateReportStatus(ctx context.Context, id, status string) (*reportdomain.Report, error) {
	st, err := reportdomain.ParseStatus(status)
	if err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	return &reportdomain.Report{ID: id, Status: st}, nil
}

func (m *mockAdmin) PostSiteAnnouncement(ctx context.Context, title, message, level string) (*announcementdomain.SiteAnnouncement, error) {
	return &announcementdomain.SiteAnnouncement{ID: "s1", Title: title, Message: message, Level: announcementdomain.LevelInfo}, nil
}

func (m *mockAdmin) AuditLogs(ctx context.Context, workspaceID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	m.auditQuery.workspace, m.auditQuery.limit, m.auditQuery.offset = workspaceID, limit, offset
	return []*auditdomain.AuditLog{{ID: "a1", Action: "role_changed", Resource: "user"}}, nil
}

func serve(m *mockAdmin, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(m, nil).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestAdminRoutes(t *testing.T) {
	testCases := []struct {
		name         string
		method, path string
		body         string
		wantStatus   int
		wantContains string
	}{
		{"list users", http.MethodGet, "/admin/users", "", http.StatusOK, `"role":"owner"`},
		{"set role", http.MethodPost, "/admin/users/u2/role", `{"role":"moderator"}`, http.StatusOK, `"role":"moderator"`},
		{"set owner role denied", http.MethodPost, "/admin/users/u2/role", `{"role":"owner"}`, http.StatusForbidden, rbac.ReasonOwnerOnly},
		{"set unknown role", http.MethodPost, "/admin/users/u2/role", `{"role":"root"}`, http.StatusBadRequest, "invalid role"},
		{"toggle without flag", http.MethodPost, "/admin/users/u2/admin", `{}`, http.StatusBadRequest, "is_admin is required"},
		{"subscription", http.MethodPost, "/admin/users/u2/subscription", `{"subscription":"lite"}`, http.StatusOK, `"subscription":"lite"`},
		{"delete self", http.MethodDelete, "/admin/users/u1", "", http.StatusForbidden, rbac.ReasonDeleteSelf},
		{"list workspaces", http.MethodGet, "/admin/workspaces", "", http.StatusOK, `"creator_username":"owner"`},
		{"delete workspace", http.MethodDelete, "/admin/workspaces/w1", "", http.StatusOK, `"success":true`},
		{"delete missing workspace", http.MethodDelete, "/admin/workspaces/w9", "", http.StatusNotFound, "workspace not found"},
		{"list reports", http.MethodGet, "/admin/reports", "", http.StatusOK, `"workspace_name":"alpha"`},
		{"update report", http.MethodPatch, "/admin/reports/r1", `{"status":"resolved"}`, http.StatusOK, `"status":"resolved"`},
		{"update report bad status", http.MethodPatch, "/admin/reports/r1", `{"status":"closed"}`, http.StatusBadRequest, "invalid report status"},
		{"post announcement", http.MethodPost, "/admin/announcements", `{"title":"Hi","message":"m"}`, http.StatusCreated, `"title":"Hi"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(&mockAdmin{}, tc.method, tc.path, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tc.wantContains) {
				t.Errorf("body %s does not contain %q", rec.Body, tc.wantContains)
			}
		})
	}
}

func TestToggleAdminForwardsFlag(t *testing.T) {
	m := &mockAdmin{}
	if rec := serve(m, http.MethodPost, "/admin/users/u2/admin", `{"is_admin":true}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.toggled == nil || !*m.toggled {
		t.Errorf("toggled = %v", m.toggled)
	}
}

func TestAuditLogsQuery(t *testing.T) {
	m := &mockAdmin{}
	rec := serve(m, http.MethodGet, "/admin/audit?workspace_id=w1&limit=10&offset=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	q := m.auditQuery
	if q.workspace != "w1" || q.limit != 10 || q.offset != 20 {
		t.Errorf("query = %+v", q)
	}
	if !strings.Contains(rec.Body.String(), `"action":"role_changed"`) {
		t.Errorf("body = %s", rec.Body)
	}
}
