package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"devspaces/internal/memstore"
	policyengine "devspaces/internal/policy/engine"
	"devspaces/internal/security"
)

type client struct {
	t     *testing.T
	base  string
	http  *http.Client
	token string
}

func newClient(t *testing.T, base string) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, base: base, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the envelope.
func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (c *client) expect(method, path string, body any, want int) map[string]any {
	c.t.Helper()
	got, out := c.do(method, path, body)
	if got != want {
		c.t.Fatalf("%s %s = %d, want %d (body %v)", method, path, got, want, out)
	}
	return out
}

func field(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	policy, err := policyengine.NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	h, err := NewApp(MemoryStores(memstore.New()), Options{
		BcryptCost: 4,
		Policy:     policy,
		Tokens:     tokens,
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func signupAndLogin(c *client, username, email string) map[string]any {
	c.t.Helper()
	creds := map[string]string{"username": username, "email": email, "password": "password123"}
	c.expect(http.MethodPost, "/signup", creds, http.StatusCreated)
	return c.expect(http.MethodPost, "/login", map[string]string{"email": email, "password": "password123"}, http.StatusOK)
}

func TestApp_WorkspaceLifecycle(t *testing.T) {
	srv := newTestApp(t)
	owner := newClient(t, srv.URL)
	alice := newClient(t, srv.URL)

	ownerLogin := signupAndLogin(owner, "owner", "owner@example.com")
	if role := field(ownerLogin, "user", "role"); role != "owner" {
		t.Fatalf("first account role = %v", role)
	}
	aliceLogin := signupAndLogin(alice, "alice", "alice@example.com")
	aliceID, _ := field(aliceLogin, "user", "id").(string)

	created := owner.expect(http.MethodPost, "/workspaces", map[string]string{"name": "alpha"}, http.StatusCreated)
	wsID, _ := field(created, "workspace", "id").(string)
	owner.expect(http.MethodPost, "/workspaces", map[string]string{"name": "ALPHA"}, http.StatusConflict)

	alice.expect(http.MethodGet, "/workspaces/alpha/members", nil, http.StatusForbidden)
	owner.expect(http.MethodPost, "/workspaces/alpha/members",
		map[string]string{"email": "alice@example.com", "role": "developer"}, http.StatusCreated)
	owner.expect(http.MethodPost, "/workspaces/alpha/members",
		map[string]string{"email": "alice@example.com"}, http.StatusConflict)

	members := alice.expect(http.MethodGet, "/workspaces/alpha/members", nil, http.StatusOK)
	if members["requester_role"] != "developer" || members["requester_global_role"] != "user" {
		t.Errorf("alice standing = %v/%v", members["requester_role"], members["requester_global_role"])
	}

	task := alice.expect(http.MethodPost, "/workspaces/alpha/tasks", map[string]string{"title": "write docs"}, http.StatusCreated)
	taskID, _ := field(task, "task", "id").(string)
	assignPath := "/workspaces/alpha/tasks/" + taskID + "/assign"
	alice.expect(http.MethodPost, assignPath, map[string]string{"user_id": aliceID}, http.StatusForbidden)
	assigned := owner.expect(http.MethodPost, assignPath, map[string]string{"user_id": aliceID}, http.StatusOK)
	if field(assigned, "task", "assignee_id") != aliceID {
		t.Errorf("assignee = %v", field(assigned, "task", "assignee_id"))
	}

	alice.expect(http.MethodDelete, "/workspaces/alpha", nil, http.StatusForbidden)
	alice.expect(http.MethodPost, "/workspaces/alpha/reports", map[string]string{"reason": "spam"}, http.StatusCreated)

	audit := owner.expect(http.MethodGet, "/admin/audit?workspace_id="+wsID, nil, http.StatusOK)
	actions := map[string]bool{}
	for _, e := range audit["audit_logs"].([]any) {
		actions[field(e.(map[string]any), "action").(string)] = true
	}
	for _, want := range []string{"create", "user_added", "assign"} {
		if !actions[want] {
			t.Errorf("audit trail for %s lacks %q: %v", wsID, want, actions)
		}
	}

	owner.expect(http.MethodDelete, "/workspaces/alpha", nil, http.StatusOK)
	alice.expect(http.MethodGet, "/workspaces/alpha/tasks", nil, http.StatusNotFound)
}

func TestApp_AdminSurface(t *testing.T) {
	srv := newTestApp(t)
	owner := newClient(t, srv.URL)
	alice := newClient(t, srv.URL)

	ownerLogin := signupAndLogin(owner, "owner", "owner@example.com")
	ownerID, _ := field(ownerLogin, "user", "id").(string)
	aliceLogin := signupAndLogin(alice, "alice", "alice@example.com")
	aliceID, _ := field(aliceLogin, "user", "id").(string)

	alice.expect(http.MethodGet, "/admin/reports", nil, http.StatusForbidden)
	alice.expect(http.MethodPost, "/admin/users/"+ownerID+"/role", map[string]string{"role": "user"}, http.StatusForbidden)

	promoted := owner.expect(http.MethodPost, "/admin/users/"+aliceID+"/admin", map[string]bool{"is_admin": true}, http.StatusOK)
	if field(promoted, "user", "role") != "moderator" || field(promoted, "user", "is_admin") != true {
		t.Fatalf("promoted = %v", promoted["user"])
	}
	alice.expect(http.MethodGet, "/admin/reports", nil, http.StatusOK)
	alice.expect(http.MethodGet, "/admin/users", nil, http.StatusForbidden)
	alice.expect(http.MethodPost, "/admin/announcements", map[string]string{"message": "maintenance tonight", "level": "warning"}, http.StatusCreated)

	latest := owner.expect(http.MethodGet, "/site-announcements/latest", nil, http.StatusOK)
	if latest["seen"] != false || field(latest, "announcement", "title") != "Announcement" {
		t.Errorf("first view = %v", latest)
	}
	latest = owner.expect(http.MethodGet, "/site-announcements/latest", nil, http.StatusOK)
	if latest["seen"] != false {
		t.Errorf("second read seen = %v, want false until dismissed", latest["seen"])
	}
	announcementID, _ := field(latest, "announcement", "id").(string)
	owner.expect(http.MethodPost, "/site-announcements/"+announcementID+"/seen", nil, http.StatusOK)
	owner.expect(http.MethodPost, "/site-announcements/no-such-id/seen", nil, http.StatusNotFound)
	latest = owner.expect(http.MethodGet, "/site-announcements/latest", nil, http.StatusOK)
	if latest["seen"] != true {
		t.Errorf("seen after dismiss = %v", latest["seen"])
	}

	owner.expect(http.MethodDelete, "/admin/users/"+ownerID, nil, http.StatusForbidden)
	owner.expect(http.MethodDelete, "/admin/users/"+aliceID, nil, http.StatusOK)
	alice.expect(http.MethodGet, "/me", nil, http.StatusUnauthorized)
}

func TestApp_BearerTokenAndAnonymous(t *testing.T) {
	srv := newTestApp(t)
	browser := newClient(t, srv.URL)
	login := signupAndLogin(browser, "owner", "owner@example.com")
	token, _ := login["access_token"].(string)
	if token == "" {
		t.Fatal("login should return an access token")
	}

	api := newClient(t, srv.URL)
	api.token = token
	me := api.expect(http.MethodGet, "/me", nil, http.StatusOK)
	if field(me, "user", "email") != "owner@example.com" {
		t.Errorf("me = %v", me["user"])
	}

	anon := newClient(t, srv.URL)
	anon.expect(http.MethodGet, "/me", nil, http.StatusUnauthorized)
	anon.expect(http.MethodGet, "/site-announcements/latest", nil, http.StatusOK)
	anon.expect(http.MethodGet, "/healthz", nil, http.StatusOK)
	out := anon.expect(http.MethodGet, "/no-such-route", nil, http.StatusNotFound)
	if out["success"] != false {
		t.Errorf("404 envelope = %v", out)
	}

	browser.expect(http.MethodPost, "/logout", nil, http.StatusOK)
	browser.expect(http.MethodGet, "/me", nil, http.StatusUnauthorized)
}
