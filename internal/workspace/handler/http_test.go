package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	membershipdomain "devspaces/internal/membership/domain"
	"devspaces/internal/platform/apperr"
	userdomain "devspaces/internal/user/domain"
	"devspaces/internal/workspace/domain"
	"devspaces/internal/workspace/service"
)

type mockWorkspaces struct {
	byName    map[string]*domain.Workspace
	members   map[string][]*membershipdomain.Member
	addErr    error
	lastName  string
	lastRole  string
	lastEmail string
	update    service.UpdateRequest
}

func (m *mockWorkspaces) find(name string) (*domain.Workspace, error) {
	m.lastName = name
	ws, ok := m.byName[name]
	if !ok {
		return nil, apperr.NotFound("workspace not found")
	}
	return ws, nil
}

func (m *mockWorkspaces) Create(ctx context.Context, name, description string) (*domain.Workspace, error) {
	if _, ok := m.byName[name]; ok {
		return nil, apperr.Conflict("a workspace with this name already exists")
	}
	ws := &domain.Workspace{ID: "w-new", Name: name, Description: description}
	m.byName[name] = ws
	return ws, nil
}

func (m *mockWorkspaces) ListMine(ctx context.Context) ([]*domain.Workspace, error) {
	var out []*domain.Workspace
	for _, ws := range m.byName {
		out = append(out, ws)
	}
	return out, nil
}

func (m *mockWorkspaces) Update(ctx context.Context, name string, req service.UpdateRequest) (*domain.Workspace, error) {
	ws, err := m.find(name)
	if err != nil {
		return nil, err
	}
	m.update = req
	out := *ws
	if req.Name != nil {
		out.Name = *req.Name
	}
	return &out, nil
}

func (m *mockWorkspaces) Delete(ctx context.Context, name string) error {
	_, err := m.find(name)
	return err
}

func (m *mockWorkspaces) Members(ctx context.Context, name string) (*service.MembersView, error) {
	ws, err := m.find(name)
	if err != nil {
		return nil, err
	}
	return &service.MembersView{
		Workspace:           ws,
		Members:             m.members[name],
		RequesterRole:       membershipdomain.RoleAdmin,
		RequesterGlobalRole: userdomain.RoleOwner,
	}, nil
}

func (m *mockWorkspaces) AddMember(ctx context.Context, name, email, roleName string) (*membershipdomain.Member, error) {
	m.lastName, m.lastEmail, m.lastRole = name, email, roleName
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &membershipdomain.Member{UserID: "u2", Email: email, Role: membershipdomain.Role(roleName)}, nil
}

func newMock() *mockWorkspaces {
	return &mockWorkspaces{
		byName: map[string]*domain.Workspace{"alpha": {ID: "w1", Name: "alpha"}},
		members: map[string][]*membershipdomain.Member{
			"alpha": {{UserID: "u1", Username: "owner", Email: "o@example.com", Role: membershipdomain.RoleAdmin}},
		},
	}
}

func serve(m *mockWorkspaces, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(m, nil).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreate(t *testing.T) {
	m := newMock()
	rec := serve(m, http.MethodPost, "/workspaces", `{"name":"beta","description":"second"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := serve(m, http.MethodPost, "/workspaces", `{"name":"alpha"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rec.Code)
	}
}

func TestMembers(t *testing.T) {
	rec := serve(newMock(), http.MethodGet, "/workspaces/alpha/members", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Members             []MemberView `json:"members"`
		RequesterRole       string       `json:"requester_role"`
		RequesterGlobalRole string       `json:"requester_global_role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Members) != 1 || body.Members[0].Role != "admin" {
		t.Errorf("members = %+v", body.Members)
	}
	if body.RequesterRole != "admin" || body.RequesterGlobalRole != "owner" {
		t.Errorf("requester = %q/%q", body.RequesterRole, body.RequesterGlobalRole)
	}
	if rec := serve(newMock(), http.MethodGet, "/workspaces/missing/members", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing workspace status = %d", rec.Code)
	}
	if rec := serve(newMock(), http.MethodGet, "/workspaces/alph%61/members", ""); rec.Code != http.StatusOK {
		t.Errorf("needlessly escaped name status = %d", rec.Code)
	}
}

func TestAddMember(t *testing.T) {
	m := newMock()
	rec := serve(m, http.MethodPost, "/workspaces/alpha/members", `{"email":"bob@example.com","role":"head-developer"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.lastName != "alpha" || m.lastEmail != "bob@example.com" || m.lastRole != "head-developer" {
		t.Errorf("forwarded %q %q %q", m.lastName, m.lastEmail, m.lastRole)
	}

	m.addErr = apperr.Forbidden("insufficient workspace permissions")
	if rec := serve(m, http.MethodPost, "/workspaces/alpha/members", `{"email":"bob@example.com"}`); rec.Code != http.StatusForbidden {
		t.Errorf("denied status = %d", rec.Code)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	m := newMock()
	rec := serve(m, http.MethodPatch, "/workspaces/alpha", `{"description":"new"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if m.update.Name != nil {
		t.Error("absent name should be forwarded as nil")
	}
	if m.update.Description == nil || *m.update.Description != "new" {
		t.Errorf("description = %v", m.update.Description)
	}
}

func TestDelete(t *testing.T) {
	if rec := serve(newMock(), http.MethodDelete, "/workspaces/alpha", ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
