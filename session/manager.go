package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/sessionauth/internal/util"
	"github.com/giantswarm/sessionauth/storage"
)

const (
	// DefaultCookieName is the name of the session cookie
	DefaultCookieName = "session_id"

	// DefaultTTL is how long a saved session lives without being saved again
	DefaultTTL = 24 * time.Hour

	sessionIDLogLength = 8
)

// ErrMissingSecret is returned when no signing secret is configured
var ErrMissingSecret = errors.New("session secret is required")

// Config configures cookie handling and session lifetime
type Config struct {
	// Secret signs session cookies
	Secret string

	// PreviousSecrets still verify cookies signed before a rotation
	PreviousSecrets []string

	// CookieName defaults to DefaultCookieName
	CookieName string

	// TTL defaults to DefaultTTL. It is both the store TTL and the cookie Max-Age.
	TTL time.Duration

	// Secure sets the cookie Secure attribute. Disable only for plain-HTTP development.
	Secure bool

	// SameSite defaults to http.SameSiteLaxMode, which still sends the cookie on the
	// top-level redirect back from the provider.
	SameSite http.SameSite
}

// Manager loads, saves, renews and destroys sessions.
// Anonymous sessions are never persisted: a record and a cookie are only written
// once a handler modifies the session.
type Manager struct {
	store  storage.SessionStore
	config Config
	signer *signer
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a session manager backed by store
func NewManager(store storage.SessionStore, config Config, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config.Secret == "" {
		return nil, ErrMissingSecret
	}
	if logger == nil {
		logger = slog.Default()
	}

	if config.CookieName == "" {
		config.CookieName = DefaultCookieName
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.SameSite == 0 {
		config.SameSite = http.SameSiteLaxMode
	}

	return &Manager{
		store:  store,
		config: config,
		signer: newSigner(config.CookieName, config.Secret, config.PreviousSecrets, config.TTL),
		logger: logger,
		now:    time.Now,
	}, nil
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

func (m *Manager) fresh() *Session {
	return newSession(uuid.NewString(), m.now())
}

// Anonymous returns a new unsaved session without consulting the store
func (m *Manager) Anonymous() *Session {
	return m.fresh()
}

// Load returns the session referenced by the request cookie. A missing, forged or
// expired cookie yields a fresh unsaved session. Only a store failure is an error.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return m.fresh(), nil
	}

	id, ok := m.signer.verify(cookie.Value)
	if !ok {
		m.logger.DebugContext(ctx, "Ignoring session cookie with invalid signature")
		return m.fresh(), nil
	}

	record, err := m.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			m.logger.DebugContext(ctx, "Session cookie refers to unknown or expired session",
				"session_id_prefix", util.SafeTruncate(id, sessionIDLogLength))
			return m.fresh(), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s := fromRecord(record)
	m.logger.DebugContext(ctx, "Loaded session",
		"session_id_prefix", util.SafeTruncate(id, sessionIDLogLength),
		"authenticated", s.IsAuthenticated(),
		"remaining_ttl", s.RemainingTTL())
	return s, nil
}

// Save persists a modified session and sets its cookie. Unmodified and destroyed
// sessions are left alone.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil || s.destroyed || !s.modified {
		return nil
	}

	value, err := m.signer.sign(s.ID)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	if err := m.store.SaveSession(ctx, s.toRecord(), m.config.TTL); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.ExpiresAt = m.now().Add(m.config.TTL)
	s.isNew = false
	s.modified = false

	http.SetCookie(w, m.cookie(value, int(m.config.TTL.Seconds())))
	return nil
}

// Renew gives the session a new ID and clears its contents, deleting the previous
// record. Call it before attaching a user so a pre-login ID never becomes authenticated.
func (m *Manager) Renew(ctx context.Context, s *Session) error {
	if !s.isNew {
		if err := m.store.DeleteSession(ctx, s.ID); err != nil {
			return fmt.Errorf("failed to delete previous session: %w", err)
		}
	}

	renewed := m.fresh()
	*s = *renewed
	s.modified = true
	return nil
}

// Destroy deletes the session record and expires the cookie. Safe to call on a
// new or already destroyed session. The cookie is expired even when the store
// delete fails; the orphaned record then lives until its TTL.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil {
		return nil
	}

	var err error
	if !s.isNew && !s.destroyed {
		if derr := m.store.DeleteSession(ctx, s.ID); derr != nil {
			err = fmt.Errorf("failed to destroy session: %w", derr)
		}
	}

	s.User = nil
	s.destroyed = true
	s.modified = false

	http.SetCookie(w, m.cookie("", -1))
	return err
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.config.Secure,
		SameSite: m.config.SameSite,
	}
}
