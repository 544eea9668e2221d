package sessionauth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/giantswarm/sessionauth/internal/util"
)

// ErrMissingConfig is returned by Validate when a required setting is absent
var ErrMissingConfig = errors.New("missing required configuration")

// Store backends accepted by StorageConfig.Backend
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the server configuration.
// Structured using composition; every field can be set from the environment.
type Config struct {
	// Port is the TCP port the HTTP server listens on
	Port int `env:"PORT" envDefault:"5000"`

	// Google OAuth credentials and settings
	Google GoogleConfig

	// Session cookie and lifetime settings
	Session SessionConfig

	// Session storage backend
	Storage StorageConfig

	// Password hashing settings
	Password PasswordConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Security settings (secure by default)
	Security SecurityConfig

	// Metrics and tracing
	Instrumentation InstrumentationConfig
}

// GoogleConfig holds Google OAuth client settings
type GoogleConfig struct {
	// ClientID is the Google OAuth Client ID (required)
	ClientID string `env:"GOOGLE_CLIENT_ID"`

	// ClientSecret is the Google OAuth Client Secret (required)
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// RedirectURL is where Google redirects after authentication
	RedirectURL string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:5000/auth/google/callback"`

	// Timeout bounds the whole callback: code exchange plus profile fetch
	Timeout time.Duration `env:"GOOGLE_TIMEOUT" envDefault:"10s"`
}

// SessionConfig holds session cookie settings
type SessionConfig struct {
	// Secret signs session cookies (required)
	Secret string `env:"SESSION_SECRET"`

	// PreviousSecrets still verify cookies during a secret rotation
	PreviousSecrets []string `env:"SESSION_PREVIOUS_SECRETS" envSeparator:","`

	// CookieSecure sets the Secure cookie attribute.
	// WARNING: Only disable for local development over plain HTTP.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	// TTL is the session lifetime
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// StorageConfig selects where sessions live
type StorageConfig struct {
	// Backend is StoreMemory or StoreRedis
	Backend string `env:"SESSION_STORE" envDefault:"memory"`

	// RedisURL is required for the redis backend (redis:// or rediss://)
	RedisURL string `env:"REDIS_URL"`

	// EncryptionKey is a base64 AES-256 key sealing redis records at rest. Optional.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`

	// CleanupInterval is how often the memory backend sweeps expired sessions
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1m"`
}

// PasswordConfig holds password hashing settings
type PasswordConfig struct {
	// Salt is mixed into every password hash (required)
	Salt string `env:"SALT"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP on the callback and registration
	// endpoints. Zero disables limiting.
	Rate float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`

	// Burst is the maximum burst size allowed per IP
	Burst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// MaxRegistrationsPerHour caps accepted registrations per IP. Zero disables.
	MaxRegistrationsPerHour int `env:"REGISTRATION_MAX_PER_HOUR" envDefault:"10"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// TrustedProxyCount is the number of proxies in front of this server
	TrustedProxyCount int `env:"TRUSTED_PROXY_COUNT" envDefault:"1"`

	// EnableAuditLogging enables security audit logging (user identifiers hashed)
	EnableAuditLogging bool `env:"AUDIT_LOGGING" envDefault:"true"`

	// AdminEmails are verified Google emails granted the admin role at login
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
}

// InstrumentationConfig holds metrics and tracing settings
type InstrumentationConfig struct {
	// MetricsEnabled exposes Prometheus metrics on /metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"false"`

	// TraceEndpoint is an OTLP/HTTP endpoint URL. Empty disables trace export.
	TraceEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// ServiceVersion is reported as service.version
	ServiceVersion string `env:"SERVICE_VERSION"`
}

// LoadConfigFromEnv loads configuration from environment variables and applies defaults
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Security.AdminEmails = trimCSV(cfg.Security.AdminEmails)
	cfg.Session.PreviousSecrets = trimCSV(cfg.Session.PreviousSecrets)
	return &cfg, nil
}

// Validate checks required settings and logs warnings for insecure ones
func (c *Config) Validate(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	c.applyDefaults()

	var missing []string
	if c.Google.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.Google.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.Session.Secret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if strings.TrimSpace(c.Password.Salt) == "" {
		missing = append(missing, "SALT")
	}
	if c.Storage.Backend == StoreRedis && c.Storage.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.Storage.Backend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown session store %q (want %q or %q)", c.Storage.Backend, StoreMemory, StoreRedis)
	}

	redirect, err := url.Parse(c.Google.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("invalid GOOGLE_REDIRECT_URI %q", c.Google.RedirectURL)
	}
	if redirect.Scheme != "https" && !util.IsLoopbackHostname(redirect.Hostname()) {
		return fmt.Errorf("GOOGLE_REDIRECT_URI must use https unless it points at localhost: %q", c.Google.RedirectURL)
	}

	if len(c.Session.Secret) < 32 {
		logger.Warn("SESSION_SECRET is shorter than 32 bytes; use a long random value in production")
	}
	if !c.Session.CookieSecure {
		logger.Warn("SESSION_COOKIE_SECURE is disabled; session cookies will be sent over plain HTTP")
	}
	if c.Storage.Backend == StoreMemory && c.Storage.EncryptionKey != "" {
		logger.Warn("SESSION_ENCRYPTION_KEY only applies to the redis session store")
	}
	if c.RateLimit.Rate <= 0 {
		logger.Warn("Rate limiting is disabled")
	}

	return nil
}

// applyDefaults fills zero values for callers that build Config by hand
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.Google.Timeout <= 0 {
		c.Google.Timeout = 10 * time.Second
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = StoreMemory
	}
	if c.Security.TrustedProxyCount <= 0 {
		c.Security.TrustedProxyCount = 1
	}
}

// trimCSV removes surrounding space and empty entries from a CSV-split slice
func trimCSV(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
