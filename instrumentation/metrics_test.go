package instrumentation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newEnabled(t *testing.T) *Instrumentation {
	t.Helper()
	inst, err := New(Config{Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = inst.Shutdown(context.Background()) })
	return inst
}

func scrape(t *testing.T, inst *Instrumentation) string {
	t.Helper()
	rec := httptest.NewRecorder()
	inst.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	inst := newEnabled(t)
	metrics := inst.Metrics()

	tests := []struct {
		name       string
		method     string
		route      string
		statusCode int
		durationMs float64
	}{
		{"redirect", "GET", "auth_google", 302, 1.2},
		{"register", "POST", "auth_register", 200, 12.5},
		{"bad request", "POST", "auth_register", 400, 0.7},
		{"upstream failure", "GET", "auth_google_callback", 500, 240.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics.RecordHTTPRequest(ctx, tt.method, tt.route, tt.statusCode, tt.durationMs)
		})
	}

	out := scrape(t, inst)
	if !strings.Contains(out, `route="auth_register"`) {
		t.Error("expected route label in exposition output")
	}
}

func TestMetrics_RecordAuthenticationFlow(t *testing.T) {
	ctx := context.Background()
	inst := newEnabled(t)
	metrics := inst.Metrics()

	metrics.RecordLoginStarted(ctx, "google")
	metrics.RecordCallbackProcessed(ctx, "google", true, "")
	metrics.RecordCallbackProcessed(ctx, "google", false, "exchange_code")
	metrics.RecordLogout(ctx, true)
	metrics.RecordRegistration(ctx, "success")
	metrics.RecordRegistration(ctx, "invalid")

	out := scrape(t, inst)
	for _, want := range []string{
		"sessionauth_login_started",
		"sessionauth_callback_processed",
		`reason="exchange_code"`,
		"sessionauth_logout_total",
		"sessionauth_registration_total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_RecordSecurity(t *testing.T) {
	ctx := context.Background()
	inst := newEnabled(t)
	metrics := inst.Metrics()

	metrics.RecordAccessDenied(ctx, "admin")
	metrics.RecordRateLimitExceeded(ctx, "ip")
	metrics.RecordAuditEvent(ctx, "login_success")

	out := scrape(t, inst)
	for _, want := range []string{
		`required_role="admin"`,
		`limiter_type="ip"`,
		`event_type="login_success"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_RecordStorageOperation(t *testing.T) {
	ctx := context.Background()
	inst := newEnabled(t)

	inst.Metrics().RecordStorageOperation(ctx, "redis", "save_session", "success", 0.8)
	inst.Metrics().RecordStorageOperation(ctx, "redis", "get_session", "error", 0.3)

	out := scrape(t, inst)
	if !strings.Contains(out, `storage="redis"`) {
		t.Error("metrics output missing storage label")
	}
}

func TestMetrics_RecordProviderAPICall(t *testing.T) {
	ctx := context.Background()
	inst := newEnabled(t)

	tests := []struct {
		name          string
		statusCode    int
		err           error
		wantErrorType string
	}{
		{"success", 200, nil, ""},
		{"client error", 400, errors.New("invalid_grant"), "client_error"},
		{"server error", 503, errors.New("unavailable"), "server_error"},
		{"transport error", 0, errors.New("dial tcp"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst.Metrics().RecordProviderAPICall(ctx, "google", "exchange_code", tt.statusCode, 10, tt.err)
		})
	}

	out := scrape(t, inst)
	for _, tt := range tests {
		if tt.wantErrorType == "" {
			continue
		}
		if !strings.Contains(out, `error_type="`+tt.wantErrorType+`"`) {
			t.Errorf("metrics output missing error_type %q", tt.wantErrorType)
		}
	}
}
