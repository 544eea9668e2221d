// Package sessionauth implements session-based authentication over HTTP: local
// password registration, Google OAuth login backed by a server-side session, and
// role-gated routes.
//
// Server holds the business logic and Handler adapts it to HTTP. The route table
// returned by Handler.Routes is explicit, and every handler receives the request's
// session as an argument instead of reading it from shared state.
package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/password"
	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
	"github.com/giantswarm/sessionauth/validation"
)

// RoleAdmin is the role required by the admin dashboard
const RoleAdmin = "admin"

// DefaultProviderTimeout bounds a whole login callback (code exchange plus profile fetch)
const DefaultProviderTimeout = 10 * time.Second

// Server implements the authentication logic independently of HTTP.
type Server struct {
	provider providers.Provider
	sessions *session.Manager
	hasher   *password.Hasher

	Auditor             *security.Auditor
	CallbackLimiter     *security.RateLimiter   // per-IP token bucket on the OAuth callback
	RegistrationLimiter *security.RateLimiter   // per-IP token bucket on registration attempts
	RegistrationWindow  *security.WindowLimiter // per-IP cap on accepted registrations
	Instrumentation     *instrumentation.Instrumentation
	Logger              *slog.Logger
	Config              *ServerConfig

	tracer trace.Tracer
}

// ServerConfig holds settings used by Server and Handler
type ServerConfig struct {
	// ProviderTimeout bounds the code exchange and profile fetch of one callback.
	// Default: 10s
	ProviderTimeout time.Duration

	// AdminEmails lists verified emails that receive RoleAdmin at login.
	// Matching is case-insensitive.
	AdminEmails []string

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers
	// WARNING: Only enable if behind a trusted reverse proxy
	// Default: false
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of this server
	// Default: 1
	TrustedProxyCount int

	// HSTS adds Strict-Transport-Security to responses. Enable when served over HTTPS.
	HSTS bool
}

// NewServer creates a new authentication server
func NewServer(
	provider providers.Provider,
	sessions *session.Manager,
	hasher *password.Hasher,
	config *ServerConfig,
	logger *slog.Logger,
) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if config == nil {
		config = &ServerConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		provider: provider,
		sessions: sessions,
		hasher:   hasher,
		Config:   applyServerDefaults(config),
		Logger:   logger,
	}, nil
}

func applyServerDefaults(config *ServerConfig) *ServerConfig {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultProviderTimeout
	}
	if config.TrustedProxyCount <= 0 {
		config.TrustedProxyCount = 1
	}
	return config
}

// SetAuditor sets the security auditor
func (s *Server) SetAuditor(aud *security.Auditor) {
	s.Auditor = aud
}

// SetCallbackRateLimiter sets the per-IP limiter guarding the OAuth callback
func (s *Server) SetCallbackRateLimiter(rl *security.RateLimiter) {
	s.CallbackLimiter = rl
}

// SetRegistrationRateLimiter sets the per-IP limiter guarding registration attempts
func (s *Server) SetRegistrationRateLimiter(rl *security.RateLimiter) {
	s.RegistrationLimiter = rl
}

// SetRegistrationWindowLimiter caps accepted registrations per IP
func (s *Server) SetRegistrationWindowLimiter(wl *security.WindowLimiter) {
	s.RegistrationWindow = wl
}

// SetInstrumentation enables metrics and tracing for the server
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.Instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("server")
	}
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// ProviderName returns the name of the configured identity provider
func (s *Server) ProviderName() string {
	return s.provider.Name()
}

// AuthorizationURL returns the provider consent URL users are redirected to
func (s *Server) AuthorizationURL() string {
	return s.provider.AuthorizationURL()
}

// CompleteLogin exchanges an authorization code and fetches the user's profile.
// A failing step is reported as *providers.Error so callers can tell which one
// failed. The caller owns the session; nothing is written here.
func (s *Server) CompleteLogin(ctx context.Context, code string) (*providers.UserInfo, error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "auth.complete_login")
		defer span.End()
	}
	ctx, cancel := context.WithTimeout(ctx, s.Config.ProviderTimeout)
	defer cancel()

	var token *oauth2.Token
	err := s.callProvider(ctx, providers.OpExchangeCode, func(ctx context.Context) error {
		var err error
		token, err = s.provider.ExchangeCode(ctx, code)
		return err
	})
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}

	var user *providers.UserInfo
	err = s.callProvider(ctx, providers.OpFetchUserInfo, func(ctx context.Context) error {
		var err error
		user, err = s.provider.FetchUserInfo(ctx, token)
		return err
	})
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	if user == nil || user.ID == "" {
		err := &providers.Error{Provider: s.provider.Name(), Op: providers.OpFetchUserInfo, Err: errors.New("profile has no user id")}
		instrumentation.RecordError(span, err)
		return nil, err
	}

	if user.Role == "" && user.EmailVerified && s.isAdminEmail(user.Email) {
		user.Role = RoleAdmin
	}

	instrumentation.AddUserAttributes(span, security.HashForLogging(user.ID), user.Role)
	instrumentation.SetSpanSuccess(span)
	return user, nil
}

// callProvider runs one provider step with a child span and an API call metric.
// Errors that are not already *providers.Error are wrapped as one for op.
func (s *Server) callProvider(ctx context.Context, op string, call func(context.Context) error) error {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "provider."+op)
		defer span.End()
	}
	instrumentation.AddProviderAttributes(span, s.provider.Name(), op)

	start := time.Now()
	err := call(ctx)

	var perr *providers.Error
	if err != nil && !errors.As(err, &perr) {
		perr = &providers.Error{Provider: s.provider.Name(), Op: op, Err: err}
		err = perr
	}

	if s.Instrumentation != nil {
		status := 0
		if perr != nil {
			status = perr.Status
		}
		s.Instrumentation.Metrics().RecordProviderAPICall(ctx, s.provider.Name(), op, status,
			float64(time.Since(start).Milliseconds()), err)
	}

	if err != nil {
		instrumentation.RecordError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

func (s *Server) isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range s.Config.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

// Registration is an accepted registration
type Registration struct {
	Username       string
	Email          string
	HashedPassword string
}

// Register validates the input and hashes the password. Field problems are
// returned as validation.Errors and no hash is computed. Nothing is persisted.
func (s *Server) Register(in validation.RegistrationInput) (*Registration, error) {
	req, errs := validation.ValidateRegistration(in)
	if len(errs) > 0 {
		return nil, errs
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &Registration{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
	}, nil
}
