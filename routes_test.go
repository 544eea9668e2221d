package sessionauth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/internal/testutil"
	"github.com/giantswarm/sessionauth/providers/mock"
	"github.com/giantswarm/sessionauth/storage/memory"
)

func TestHandler_Routes(t *testing.T) {
	h, _ := setupMemoryHandler(t, mock.NewMockProvider())

	want := []struct {
		pattern   string
		name      string
		noSession bool
		anonymous bool
	}{
		{pattern: "GET /auth/google", name: "login", noSession: true},
		{pattern: "GET /auth/google/callback", name: "callback", anonymous: true},
		{pattern: "GET /auth/me", name: "me"},
		{pattern: "GET /auth/logout", name: "logout", anonymous: true},
		{pattern: "POST /auth/register", name: "register", noSession: true},
		{pattern: "GET /dashboard", name: "dashboard"},
		{pattern: "GET /healthz", name: "health", noSession: true},
		{pattern: "GET /metrics", name: "metrics", noSession: true},
	}

	routes := h.Routes()
	if len(routes) != len(want) {
		t.Fatalf("len(Routes()) = %d, want %d", len(routes), len(want))
	}
	for i, w := range want {
		rt := routes[i]
		if rt.Pattern() != w.pattern || rt.Name != w.name || rt.NoSession != w.noSession || rt.AnonymousOnLoadError != w.anonymous {
			t.Errorf("route %d = {%s %s %v %v}, want {%s %s %v %v}", i, rt.Pattern(), rt.Name, rt.NoSession, rt.AnonymousOnLoadError,
				w.pattern, w.name, w.noSession, w.anonymous)
		}
		if rt.Handler == nil {
			t.Errorf("route %s has no handler", rt.Pattern())
		}
	}
}

func TestHandler_Router_NotFound(t *testing.T) {
	h, _ := setupMemoryHandler(t, mock.NewMockProvider())

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "unknown path", method: http.MethodGet, path: "/nope"},
		{name: "root", method: http.MethodGet, path: "/"},
		{name: "wrong method", method: http.MethodPost, path: "/auth/me"},
		{name: "register via get", method: http.MethodGet, path: "/auth/register"},
		{name: "trailing slash", method: http.MethodGet, path: "/dashboard/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HTTPHandler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			testutil.AssertStatus(t, w, http.StatusNotFound)
			body := testutil.DecodeJSON(t, w)
			if body["error"] != "not_found" || body["message"] != "Not Found" {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h, _ := setupMemoryHandler(t, mock.NewMockProvider())

		w := httptest.NewRecorder()
		h.HTTPHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("enabled", func(t *testing.T) {
		inst, err := instrumentation.New(instrumentation.Config{Enabled: true})
		testutil.AssertNoError(t, err)
		defer func() { _ = inst.Shutdown(t.Context()) }()

		p := mock.NewMockProvider()
		store := memory.New()
		defer store.Stop()
		store.SetInstrumentation(inst)

		h := setupHandler(t, p, store)
		h.server.SetInstrumentation(inst)
		h = NewHandler(h.server, nil)
		b := newBrowser(t, h)

		testutil.AssertStatus(t, b.loginAs(p, testutil.GenerateTestAdmin()), http.StatusFound)
		testutil.AssertStatus(t, b.get("/dashboard"), http.StatusOK)

		w := b.get("/metrics")
		testutil.AssertStatus(t, w, http.StatusOK)
		for _, name := range []string{"sessionauth_http_requests_total", "sessionauth_callback_processed", "sessionauth_storage_sessions"} {
			if !strings.Contains(w.Body.String(), name) {
				t.Errorf("metric %q not exported", name)
			}
		}
	})
}
