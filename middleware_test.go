package sessionauth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giantswarm/sessionauth/internal/testutil"
	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/providers/mock"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
)

func TestHandler_RequireRole(t *testing.T) {
	h, _ := setupMemoryHandler(t, mock.NewMockProvider())

	tests := []struct {
		name       string
		user       *providers.UserInfo
		message    string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "role present",
			user:       &providers.UserInfo{ID: "u1", Role: "admin"},
			message:    MsgAccessDenied,
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous",
			message:    MsgAccessDenied,
			wantStatus: http.StatusForbidden,
			wantBody:   MsgAccessDenied,
		},
		{
			name:       "custom message",
			user:       &providers.UserInfo{ID: "u2", Role: "viewer"},
			message:    "Editors only.",
			wantStatus: http.StatusForbidden,
			wantBody:   "Editors only.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := func(w http.ResponseWriter, _ *http.Request, s *session.Session) {
				called = true
				if s.User != tt.user {
					t.Error("gate replaced the session user")
				}
				w.WriteHeader(http.StatusOK)
			}

			sess := &session.Session{ID: "s1", User: tt.user}
			w := httptest.NewRecorder()
			h.RequireRoleWithMessage("admin", tt.message, next)(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil), sess)

			testutil.AssertStatus(t, w, tt.wantStatus)
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called = %v", called)
			}
			if tt.wantBody != "" {
				if body := testutil.DecodeJSON(t, w); body["message"] != tt.wantBody {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}

func TestHandler_RequireRole_Audits(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h, _ := setupMemoryHandler(t, mock.NewMockProvider())
	h.server.SetAuditor(security.NewAuditor(logger, true))

	sess := &session.Session{ID: "s1", User: &providers.UserInfo{ID: "secret-user-id", Role: "viewer"}}
	w := httptest.NewRecorder()
	h.RequireRole(RoleAdmin, h.ServeDashboard)(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil), sess)

	testutil.AssertStatus(t, w, http.StatusForbidden)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit log is not JSON: %v; %s", err, buf.String())
	}
	if entry["event_type"] != security.EventAccessDenied {
		t.Errorf("event_type = %v", entry["event_type"])
	}
	if strings.Contains(buf.String(), "secret-user-id") {
		t.Error("raw user id written to the audit log")
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := security.RequestIDMiddleware(AccessLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.Header.Set(security.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("access log is not JSON: %v; %s", err, buf.String())
	}
	if entry["path"] != "/auth/me" || entry["method"] != http.MethodGet {
		t.Errorf("entry = %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
}
