package sessionauth

import (
	"net/http"
	"time"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
)

// SessionHandlerFunc handles a request together with its session.
// The session is never nil except on routes marked NoSession.
type SessionHandlerFunc func(w http.ResponseWriter, r *http.Request, s *session.Session)

// Route is one entry of the route table
type Route struct {
	Method  string
	Path    string
	Name    string // low-cardinality name used in metrics and spans
	Handler SessionHandlerFunc

	// NoSession skips loading the session; the handler receives nil
	NoSession bool

	// AnonymousOnLoadError hands the handler a fresh anonymous session when the
	// store cannot return the existing one, instead of failing with 500.
	AnonymousOnLoadError bool
}

// Pattern returns the http.ServeMux pattern for the route
func (rt Route) Pattern() string {
	return rt.Method + " " + rt.Path
}

// Routes returns the route table
func (h *Handler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/auth/google", Name: "login", Handler: h.ServeLogin, NoSession: true},
		{Method: http.MethodGet, Path: "/auth/google/callback", Name: "callback", Handler: h.ServeCallback, AnonymousOnLoadError: true},
		{Method: http.MethodGet, Path: "/auth/me", Name: "me", Handler: h.ServeMe},
		{Method: http.MethodGet, Path: "/auth/logout", Name: "logout", Handler: h.ServeLogout, AnonymousOnLoadError: true},
		{Method: http.MethodPost, Path: "/auth/register", Name: "register", Handler: h.ServeRegister, NoSession: true},
		{Method: http.MethodGet, Path: "/dashboard", Name: "dashboard", Handler: h.RequireRole(RoleAdmin, h.ServeDashboard)},
		{Method: http.MethodGet, Path: "/healthz", Name: "health", Handler: h.ServeHealth, NoSession: true},
		{Method: http.MethodGet, Path: "/metrics", Name: "metrics", Handler: h.ServeMetrics, NoSession: true},
	}
}

// Router builds a mux from Routes. Every route loads its session and records
// request metrics; unmatched requests get a JSON 404.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.Handle(rt.Pattern(), h.bind(rt))
	}
	mux.HandleFunc("/", h.notFound)
	return mux
}

// bind adapts a route to http.Handler
func (h *Handler) bind(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			h.recordHTTPMetrics(r.Context(), rt.Name, r.Method, rec.status, start)
		}()

		instrumentation.NameServerSpan(r.Context(), r.Method, rt.Path, rt.Name)

		var sess *session.Session
		if !rt.NoSession {
			var err error
			sess, err = h.server.Sessions().Load(r.Context(), r)
			if err != nil {
				security.LoggerFromContext(r.Context(), h.logger).Error("Failed to load session", "route", rt.Name, "error", err)
				h.server.Auditor.LogSessionStoreFailure(r.Context(), h.clientIP(r, nil), "load")
				if !rt.AnonymousOnLoadError {
					h.writeError(rec, ErrSessionUnavailable)
					return
				}
				sess = h.server.Sessions().Anonymous()
			}
		}

		rt.Handler(rec, r, sess)
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.recordHTTPMetrics(r.Context(), "not_found", r.Method, http.StatusNotFound, time.Now())
	h.writeError(w, ErrNotFound)
}

// HTTPHandler returns the complete HTTP stack: tracing, request IDs, access logging,
// security headers and the router.
func (h *Handler) HTTPHandler() http.Handler {
	var handler http.Handler = h.Router()
	handler = security.SecurityHeadersMiddleware(h.server.Config.HSTS)(handler)
	handler = AccessLogMiddleware(h.logger)(handler)
	handler = security.RequestIDMiddleware(handler)
	if h.server.Instrumentation != nil {
		handler = instrumentation.HTTPMiddleware(h.server.Instrumentation, "sessionauth")(handler)
	}
	return handler
}

// statusRecorder captures the response status for metrics and access logs
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(status int) {
	if !rec.wroteHeader {
		rec.status = status
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.wroteHeader = true
	}
	return rec.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
