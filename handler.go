package sessionauth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
	"github.com/giantswarm/sessionauth/validation"
)

const (
	// maxRegistrationBodySize bounds the registration request body
	maxRegistrationBodySize = 64 << 10

	// loginRedirectPath is where a successful login lands
	loginRedirectPath = "/auth/me"
)

// Handler is a thin HTTP adapter for the authentication Server.
// It handles HTTP requests and delegates to the Server for business logic.
type Handler struct {
	server     *Server
	logger     *slog.Logger
	tracer     trace.Tracer // OpenTelemetry tracer for HTTP layer
	ipResolver security.IPResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(server *Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		server: server,
		logger: logger,
		ipResolver: security.IPResolver{
			TrustProxy:        server.Config.TrustProxy,
			TrustedProxyCount: server.Config.TrustedProxyCount,
		},
	}

	// Initialize tracer if instrumentation is enabled
	if server.Instrumentation != nil {
		h.tracer = server.Instrumentation.Tracer("http")
	}

	return h
}

func (h *Handler) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if h.tracer == nil {
		return ctx, nil
	}
	return h.tracer.Start(ctx, name)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v, h.server.Config.HSTS)
}

func (h *Handler) writeError(w http.ResponseWriter, e *APIError) {
	writeAPIError(w, e, h.server.Config.HSTS)
}

// ServeLogin redirects the browser to the provider consent page
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	ctx, span := h.startSpan(r.Context(), "auth.http.login")
	if span != nil {
		defer span.End()
	}

	h.recordLoginStarted(ctx)
	instrumentation.AddProviderAttributes(span, h.server.ProviderName(), "authorize")
	instrumentation.SetSpanSuccess(span)

	http.Redirect(w, r, h.server.AuthorizationURL(), http.StatusFound)
}

// ServeCallback handles the provider redirect: it exchanges the code, fetches the
// profile and only then writes the user into a freshly rotated session.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx, span := h.startSpan(r.Context(), "auth.http.callback")
	if span != nil {
		defer span.End()
	}
	logger := security.LoggerFromContext(ctx, h.logger)
	clientIP := h.clientIP(r, span)
	provider := h.server.ProviderName()

	if !h.allow(ctx, h.server.CallbackLimiter, clientIP, "callback") {
		instrumentation.SetSpanError(span, "rate limited")
		h.writeError(w, ErrTooManyRequests)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		logger.Warn("Provider returned error", "error", providerErr, "description", query.Get("error_description"))
		h.server.Auditor.LogProviderCallbackError(ctx, clientIP, provider, providerErr)
	}

	code := query.Get("code")
	instrumentation.SetSpanAttributes(span, attribute.Bool(instrumentation.AttrCodePresent, code != ""))
	if code == "" {
		h.recordCallbackProcessed(ctx, false, "missing_code")
		instrumentation.SetSpanError(span, "code missing")
		h.writeError(w, ErrAuthCodeMissing)
		return
	}

	user, err := h.server.CompleteLogin(ctx, code)
	if err != nil {
		step := "unknown"
		var perr *providers.Error
		if errors.As(err, &perr) {
			step = perr.Op
		}
		logger.Error("OAuth login failed", "step", step, "error", err)
		h.server.Auditor.LogLoginFailure(ctx, clientIP, provider, step, "provider_error")
		h.recordCallbackProcessed(ctx, false, step)
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrOAuthFailed)
		return
	}

	// A pre-login session ID never becomes authenticated.
	if err := h.server.Sessions().Renew(ctx, sess); err != nil {
		h.sessionFailure(ctx, w, span, clientIP, "renew", err)
		return
	}
	sess.SetUser(user)
	if err := h.server.Sessions().Save(ctx, w, sess); err != nil {
		h.sessionFailure(ctx, w, span, clientIP, "save", err)
		return
	}

	logger.Info("User logged in", "user_id_hash", security.HashForLogging(user.ID), "role", user.Role)
	h.server.Auditor.LogLoginSuccess(ctx, user.ID, clientIP, provider)
	h.recordCallbackProcessed(ctx, true, "")
	instrumentation.AddUserAttributes(span, security.HashForLogging(user.ID), user.Role)
	instrumentation.SetSpanSuccess(span)

	http.Redirect(w, r, loginRedirectPath, http.StatusFound)
}

// ServeMe returns the user stored in the session
func (h *Handler) ServeMe(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	if !sess.IsAuthenticated() {
		h.writeError(w, ErrNotLoggedIn)
		return
	}
	h.writeJSON(w, http.StatusOK, UserResponse{User: sess.User})
}

// ServeLogout destroys the session. It always answers 200.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ctx := r.Context()
	clientIP := h.clientIP(r, nil)
	hadUser := sess.IsAuthenticated()
	userID := ""
	if hadUser {
		userID = sess.User.ID
	}

	if err := h.server.Sessions().Destroy(ctx, w, sess); err != nil {
		security.LoggerFromContext(ctx, h.logger).Error("Failed to destroy session", "error", err)
		h.server.Auditor.LogSessionStoreFailure(ctx, clientIP, "destroy")
	}

	if hadUser {
		h.server.Auditor.LogLogout(ctx, userID, clientIP)
	}
	if h.server.Instrumentation != nil {
		h.server.Instrumentation.Metrics().RecordLogout(ctx, hadUser)
	}

	h.writeJSON(w, http.StatusOK, MessageResponse{Message: MsgLoggedOut})
}

// ServeRegister validates a registration and returns the password hash.
// Nothing is stored.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	ctx, span := h.startSpan(r.Context(), "auth.http.register")
	if span != nil {
		defer span.End()
	}
	logger := security.LoggerFromContext(ctx, h.logger)
	clientIP := h.clientIP(r, span)

	if !h.allow(ctx, h.server.RegistrationLimiter, clientIP, "registration") {
		instrumentation.SetSpanError(span, "rate limited")
		h.writeError(w, ErrTooManyRequests)
		return
	}

	in := h.parseRegistration(w, r)

	reg, err := h.server.Register(in)
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Path)
		}
		h.server.Auditor.LogRegistrationRejected(ctx, clientIP, fields)
		h.recordRegistration(ctx, "invalid")
		instrumentation.SetSpanError(span, "validation failed")
		h.writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: verrs})
		return
	case err != nil:
		logger.Error("Registration failed", "error", err)
		h.recordRegistration(ctx, "error")
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrRegistrationFailed)
		return
	}

	// Only accepted registrations count against the hourly cap.
	if h.server.RegistrationWindow != nil && !h.server.RegistrationWindow.Allow(clientIP) {
		h.rateLimited(ctx, clientIP, "registration_window")
		h.recordRegistration(ctx, "rate_limited")
		instrumentation.SetSpanError(span, "registration cap reached")
		h.writeError(w, ErrTooManyRequests)
		return
	}

	h.server.Auditor.LogRegistration(ctx, reg.Username, clientIP)
	h.recordRegistration(ctx, "success")
	instrumentation.SetSpanSuccess(span)

	h.writeJSON(w, http.StatusOK, RegistrationResponse{
		Message:        MsgRegistered,
		Username:       reg.Username,
		Email:          reg.Email,
		HashedPassword: reg.HashedPassword,
	})
}

// parseRegistration reads a JSON or form encoded body. A malformed body yields
// empty input, which then fails validation on every field.
func (h *Handler) parseRegistration(w http.ResponseWriter, r *http.Request) validation.RegistrationInput {
	var in validation.RegistrationInput
	r.Body = http.MaxBytesReader(w, r.Body, maxRegistrationBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.logger.Debug("Malformed registration body", "error", err)
			return validation.RegistrationInput{}
		}
		return in
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Debug("Malformed registration form", "error", err)
		return in
	}
	in.Username = r.PostForm.Get(validation.FieldUsername)
	in.Email = r.PostForm.Get(validation.FieldEmail)
	in.Password = r.PostForm.Get(validation.FieldPassword)
	return in
}

// ServeDashboard is the admin landing route. Wrap it with RequireRole.
func (h *Handler) ServeDashboard(w http.ResponseWriter, _ *http.Request, _ *session.Session) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: MsgDashboardWelcome})
}

// ServeHealth reports liveness
func (h *Handler) ServeHealth(w http.ResponseWriter, _ *http.Request, _ *session.Session) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ServeMetrics exposes Prometheus metrics, or 404 when metrics are disabled
func (h *Handler) ServeMetrics(w http.ResponseWriter, r *http.Request, _ *session.Session) {
	if h.server.Instrumentation == nil || !h.server.Instrumentation.MetricsEnabled() {
		h.writeError(w, ErrNotFound)
		return
	}
	h.server.Instrumentation.MetricsHandler().ServeHTTP(w, r)
}

// sessionFailure answers 500 after a session store error during login
func (h *Handler) sessionFailure(ctx context.Context, w http.ResponseWriter, span trace.Span, clientIP, op string, err error) {
	security.LoggerFromContext(ctx, h.logger).Error("Session store failure", "operation", op, "error", err)
	h.server.Auditor.LogSessionStoreFailure(ctx, clientIP, op)
	h.recordCallbackProcessed(ctx, false, "session_"+op)
	instrumentation.RecordError(span, err)
	h.writeError(w, ErrSessionUnavailable)
}

// clientIP resolves the client address and attaches it to span when allowed
func (h *Handler) clientIP(r *http.Request, span trace.Span) string {
	ip := h.ipResolver.ClientIP(r)
	if h.server.Instrumentation != nil && h.server.Instrumentation.ShouldLogClientIPs() {
		instrumentation.AddSecurityAttributes(span, ip)
	}
	return ip
}

// allow consults a per-IP limiter. A nil limiter allows everything.
func (h *Handler) allow(ctx context.Context, rl *security.RateLimiter, clientIP, limiterType string) bool {
	if rl == nil || rl.Allow(clientIP) {
		return true
	}
	h.rateLimited(ctx, clientIP, limiterType)
	return false
}

// rateLimited records rate limit metrics and audit events
func (h *Handler) rateLimited(ctx context.Context, clientIP, limiterType string) {
	security.LoggerFromContext(ctx, h.logger).Warn("Rate limit exceeded", "limiter", limiterType, "ip", clientIP)
	h.server.Auditor.LogRateLimitExceeded(ctx, clientIP, limiterType)
	if h.server.Instrumentation != nil {
		h.server.Instrumentation.Metrics().RecordRateLimitExceeded(ctx, limiterType)
	}
}

// recordHTTPMetrics records HTTP request metrics (total count and duration)
func (h *Handler) recordHTTPMetrics(ctx context.Context, route, method string, status int, startTime time.Time) {
	if h.server.Instrumentation == nil {
		return
	}

	duration := time.Since(startTime).Seconds() * 1000 // convert to milliseconds
	h.server.Instrumentation.Metrics().RecordHTTPRequest(ctx, method, route, status, duration)
}

// recordLoginStarted records a redirect to the provider
func (h *Handler) recordLoginStarted(ctx context.Context) {
	if h.server.Instrumentation == nil {
		return
	}
	h.server.Instrumentation.Metrics().RecordLoginStarted(ctx, h.server.ProviderName())
}

// recordCallbackProcessed records when a callback is processed
func (h *Handler) recordCallbackProcessed(ctx context.Context, success bool, reason string) {
	if h.server.Instrumentation == nil {
		return
	}
	h.server.Instrumentation.Metrics().RecordCallbackProcessed(ctx, h.server.ProviderName(), success, reason)
}

// recordRegistration records a registration outcome
func (h *Handler) recordRegistration(ctx context.Context, result string) {
	if h.server.Instrumentation == nil {
		return
	}
	h.server.Instrumentation.Metrics().RecordRegistration(ctx, result)
}
