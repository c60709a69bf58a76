package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type stubTokens map[string]string

func (s stubTokens) ValidateAccess(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type auditCall struct {
	workspaceID, userID, action, resource string
}

type recordingAudit struct {
	calls []auditCall
}

func (a *recordingAudit) LogEvent(ctx context.Context, workspaceID, userID, action, resource, metadata string) {
	a.calls = append(a.calls, auditCall{workspaceID, userID, action, resource})
}

func TestScope_RecordsClientIP(t *testing.T) {
	var got string
	h := Scope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.9" {
		t.Errorf("ClientIP = %q", got)
	}
}

func TestIdentity(t *testing.T) {
	sessions := scs.New()
	tokens := stubTokens{"good": "u-token"}

	var seen string
	mux := chi.NewRouter()
	mux.Use(sessions.LoadAndSave, Scope, Identity(tokens, sessions))
	mux.Get("/who", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserID(r.Context())
	})
	mux.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		sessions.Put(r.Context(), SessionUserKey, "u-session")
	})

	login := httptest.NewRecorder()
	mux.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := login.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login should set a session cookie")
	}

	testCases := []struct {
		name   string
		auth   string
		cookie bool
		want   string
	}{
		{"anonymous", "", false, ""},
		{"bearer", "Bearer good", false, "u-token"},
		{"bearer lowercase scheme", "bearer good", false, "u-token"},
		{"bearer wins over session", "Bearer good", true, "u-token"},
		{"session", "", true, "u-session"},
		{"invalid bearer falls back to session", "Bearer bad", true, "u-session"},
		{"invalid bearer alone", "Bearer bad", false, ""},
		{"basic auth ignored", "Basic Zm9vOmJhcg==", false, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.cookie {
				for _, c := range cookies {
					req.AddCookie(c)
				}
			}
			mux.ServeHTTP(httptest.NewRecorder(), req)
			if seen != tc.want {
				t.Errorf("user = %q, want %q", seen, tc.want)
			}
		})
	}
}

func TestAudit(t *testing.T) {
	rec := &recordingAudit{}
	mux := chi.NewRouter()
	mux.Use(Scope)
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := r.Header.Get("X-Test-User"); u != "" {
				SetUserID(r.Context(), u)
			}
			next.ServeHTTP(w, r)
		})
	})
	mux.Use(Audit(rec))
	mux.Post("/workspaces/{name}/members", func(w http.ResponseWriter, r *http.Request) {
		SetWorkspaceID(r.Context(), "w1")
		w.WriteHeader(http.StatusCreated)
	})
	mux.Post("/admin/users/{id}/role", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	mux.Get("/workspaces", func(w http.ResponseWriter, r *http.Request) {})
	mux.Delete("/workspaces/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	do := func(method, path, user string) {
		req := httptest.NewRequest(method, path, nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		mux.ServeHTTP(httptest.NewRecorder(), req)
	}
	do(http.MethodPost, "/workspaces/alpha/members", "u1")
	do(http.MethodPost, "/admin/users/u2/role", "u1")
	do(http.MethodGet, "/workspaces", "u1")
	do(http.MethodPost, "/workspaces/alpha/members", "")
	do(http.MethodDelete, "/workspaces/alpha", "u1")

	want := []auditCall{
		{"w1", "u1", "user_added", "workspace"},
		{"", "u1", "delete", "workspace"},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, rec.calls[i], want[i])
		}
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestTelemetry_SpanAndMetrics(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mw, err := Telemetry(tp, mp)
	if err != nil {
		t.Fatalf("Telemetry: %v", err)
	}
	mux := chi.NewRouter()
	mux.Use(mw)
	mux.Get("/workspaces/{name}/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/workspaces/alpha/tasks", nil))

	ended := spans.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	if name := ended[0].Name(); name != "GET /workspaces/{name}/tasks" {
		t.Errorf("span name = %q", name)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
					t.Errorf("%s datapoints = %+v", m.Name, sum.DataPoints)
				}
			}
		}
	}
	for _, name := range []string{"http.server.requests", "http.server.duration"} {
		if !found[name] {
			t.Errorf("metric %q not recorded", name)
		}
	}
}
