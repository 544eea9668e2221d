package sessionauth

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
)

// RequireRole gates next behind role, answering 403 with MsgAccessDenied
func (h *Handler) RequireRole(role string, next SessionHandlerFunc) SessionHandlerFunc {
	return h.RequireRoleWithMessage(role, MsgAccessDenied, next)
}

// RequireRoleWithMessage gates next behind role. Anonymous sessions and users
// without the role get 403 with message; everyone else reaches next unchanged.
func (h *Handler) RequireRoleWithMessage(role, message string, next SessionHandlerFunc) SessionHandlerFunc {
	denied := ErrAccessDenied
	if message != MsgAccessDenied {
		denied = NewAPIError(http.StatusForbidden, "", message)
	}

	return func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		if s.HasRole(role) {
			next(w, r, s)
			return
		}

		ctx := r.Context()
		userID := ""
		if s.IsAuthenticated() {
			userID = s.User.ID
		}

		span := trace.SpanFromContext(ctx)
		instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrRequireRole, role))

		h.server.Auditor.LogAccessDenied(ctx, userID, h.clientIP(r, nil), role, r.URL.Path)
		if h.server.Instrumentation != nil {
			h.server.Instrumentation.Metrics().RecordAccessDenied(ctx, role)
		}

		h.writeError(w, denied)
	}
}

// AccessLogMiddleware logs one line per request with its status and duration.
// Run it inside security.RequestIDMiddleware so lines carry the request id.
func AccessLogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			security.LoggerFromContext(r.Context(), logger).Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}
