package sessionauth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("SALT", testSalt)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.Google.RedirectURL != "http://localhost:5000/auth/google/callback" {
		t.Errorf("RedirectURL = %q", cfg.Google.RedirectURL)
	}
	if cfg.Google.Timeout != 10*time.Second {
		t.Errorf("Google.Timeout = %v", cfg.Google.Timeout)
	}
	if !cfg.Session.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if cfg.Storage.Backend != StoreMemory {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.RateLimit.MaxRegistrationsPerHour != 10 {
		t.Errorf("MaxRegistrationsPerHour = %d", cfg.RateLimit.MaxRegistrationsPerHour)
	}
	if cfg.Security.TrustProxy || !cfg.Security.EnableAuditLogging {
		t.Errorf("Security = %+v", cfg.Security)
	}
	if cfg.Instrumentation.MetricsEnabled {
		t.Error("metrics should be disabled by default")
	}
	if err := cfg.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("SESSION_PREVIOUS_SECRETS", "old-one, ,old-two")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ADMIN_EMAILS", " a@example.com ,b@example.com,")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}

	if cfg.Port != 8080 || cfg.Session.TTL != 2*time.Hour || cfg.Session.CookieSecure {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := strings.Join(cfg.Session.PreviousSecrets, "|"); got != "old-one|old-two" {
		t.Errorf("PreviousSecrets = %q", got)
	}
	if got := strings.Join(cfg.Security.AdminEmails, "|"); got != "a@example.com|b@example.com" {
		t.Errorf("AdminEmails = %q", got)
	}
	if cfg.Storage.Backend != StoreRedis || cfg.RateLimit.Rate != 2.5 || !cfg.Security.TrustProxy {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFromEnv_ParseError(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := LoadConfigFromEnv(); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("LoadConfigFromEnv() error = %v, want parse error", err)
	}
}

func validConfig() *Config {
	return &Config{
		Port:     5000,
		Google:   GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:5000/auth/google/callback"},
		Session:  SessionConfig{Secret: testSecret, CookieSecure: true},
		Password: PasswordConfig{Salt: testSalt},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantMissing bool
		wantErr     string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing client id", mutate: func(c *Config) { c.Google.ClientID = "" }, wantMissing: true, wantErr: "GOOGLE_CLIENT_ID"},
		{name: "missing secret", mutate: func(c *Config) { c.Google.ClientSecret = "" }, wantMissing: true, wantErr: "GOOGLE_CLIENT_SECRET"},
		{name: "missing session secret", mutate: func(c *Config) { c.Session.Secret = "" }, wantMissing: true, wantErr: "SESSION_SECRET"},
		{name: "blank salt", mutate: func(c *Config) { c.Password.Salt = "  " }, wantMissing: true, wantErr: "SALT"},
		{name: "redis without url", mutate: func(c *Config) { c.Storage.Backend = StoreRedis }, wantMissing: true, wantErr: "REDIS_URL"},
		{name: "unknown store", mutate: func(c *Config) { c.Storage.Backend = "etcd" }, wantErr: "unknown session store"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "invalid port"},
		{name: "plain http remote redirect", mutate: func(c *Config) { c.Google.RedirectURL = "http://auth.example.com/cb" }, wantErr: "https"},
		{name: "https remote redirect", mutate: func(c *Config) { c.Google.RedirectURL = "https://auth.example.com/cb" }},
		{name: "loopback ip redirect", mutate: func(c *Config) { c.Google.RedirectURL = "http://127.0.0.1:5000/cb" }},
		{name: "relative redirect", mutate: func(c *Config) { c.Google.RedirectURL = "/cb" }, wantErr: "invalid GOOGLE_REDIRECT_URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
			if errors.Is(err, ErrMissingConfig) != tt.wantMissing {
				t.Errorf("errors.Is(err, ErrMissingConfig) = %v, want %v", !tt.wantMissing, tt.wantMissing)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Port != 5000 || cfg.Session.TTL != 24*time.Hour || cfg.Google.Timeout != 10*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Storage.Backend != StoreMemory || cfg.Security.TrustedProxyCount != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}
