package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/password"
	"github.com/giantswarm/sessionauth/providers/google"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/session"
	"github.com/giantswarm/sessionauth/storage"
	"github.com/giantswarm/sessionauth/storage/memory"
	"github.com/giantswarm/sessionauth/storage/redis"
)

// App is a fully wired server built from Config
type App struct {
	Server          *Server
	Handler         *Handler
	Instrumentation *instrumentation.Instrumentation

	closers []func(context.Context) error
}

// New builds the session store, provider, limiters and instrumentation described
// by cfg. cfg must have passed Validate. Call Close when done.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceVersion: cfg.Instrumentation.ServiceVersion,
		Enabled:        cfg.Instrumentation.MetricsEnabled,
		TraceEndpoint:  cfg.Instrumentation.TraceEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	app.Instrumentation = inst
	app.closers = append(app.closers, inst.Shutdown)

	store, err := app.newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(store, session.Config{
		Secret:          cfg.Session.Secret,
		PreviousSecrets: cfg.Session.PreviousSecrets,
		TTL:             cfg.Session.TTL,
		Secure:          cfg.Session.CookieSecure,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	provider, err := google.NewProvider(&google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Timeout:      cfg.Google.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google provider: %w", err)
	}

	hasher, err := password.NewHasher(cfg.Password.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	srv, err := NewServer(provider, sessions, hasher, &ServerConfig{
		ProviderTimeout:   cfg.Google.Timeout,
		AdminEmails:       cfg.Security.AdminEmails,
		TrustProxy:        cfg.Security.TrustProxy,
		TrustedProxyCount: cfg.Security.TrustedProxyCount,
		HSTS:              cfg.Session.CookieSecure,
	}, logger)
	if err != nil {
		return nil, err
	}
	srv.SetInstrumentation(inst)

	auditor := security.NewAuditor(logger, cfg.Security.EnableAuditLogging)
	auditor.SetInstrumentation(inst)
	srv.SetAuditor(auditor)

	if cfg.RateLimit.Rate > 0 {
		callbackLimiter := security.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, logger)
		registrationLimiter := security.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, logger)
		app.addStopper(callbackLimiter.Stop)
		app.addStopper(registrationLimiter.Stop)
		srv.SetCallbackRateLimiter(callbackLimiter)
		srv.SetRegistrationRateLimiter(registrationLimiter)

		if err := inst.RegisterRateLimiterCallback(func() int64 {
			return int64(callbackLimiter.Len() + registrationLimiter.Len())
		}); err != nil {
			return nil, fmt.Errorf("failed to register rate limiter metrics: %w", err)
		}
	}
	if cfg.RateLimit.MaxRegistrationsPerHour > 0 {
		window := security.NewWindowLimiter(cfg.RateLimit.MaxRegistrationsPerHour, time.Hour, logger)
		app.addStopper(window.Stop)
		srv.SetRegistrationWindowLimiter(window)
	}

	app.Server = srv
	app.Handler = NewHandler(srv, logger)
	return app, nil
}

// newStore opens the configured session backend and registers its cleanup
func (app *App) newStore(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.SessionStore, error) {
	switch cfg.Storage.Backend {
	case StoreRedis:
		var enc *security.Encryptor
		if cfg.Storage.EncryptionKey != "" {
			key, err := security.KeyFromBase64(cfg.Storage.EncryptionKey)
			if err != nil {
				return nil, fmt.Errorf("invalid SESSION_ENCRYPTION_KEY: %w", err)
			}
			enc, err = security.NewEncryptor(key)
			if err != nil {
				return nil, fmt.Errorf("failed to create encryptor: %w", err)
			}
		}

		store, err := redis.New(ctx, redis.Config{
			URL:       cfg.Storage.RedisURL,
			Encryptor: enc,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store.SetInstrumentation(app.Instrumentation)
		app.closers = append(app.closers, func(context.Context) error { return store.Close() })
		logger.Info("Using redis session store", "encrypted", enc.IsEnabled())
		return store, nil

	case StoreMemory, "":
		store := memory.NewWithInterval(cfg.Storage.CleanupInterval)
		store.SetLogger(logger)
		store.SetInstrumentation(app.Instrumentation)
		app.addStopper(store.Stop)
		logger.Info("Using in-memory session store; sessions are lost on restart")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Storage.Backend)
	}
}

func (app *App) addStopper(stop func()) {
	app.closers = append(app.closers, func(context.Context) error {
		stop()
		return nil
	})
}

// HTTPHandler returns the complete HTTP stack
func (app *App) HTTPHandler() http.Handler {
	return app.Handler.HTTPHandler()
}

// Close releases background goroutines, the session backend and telemetry exporters
// in reverse order of creation.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
