package session

import (
	"time"

	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/storage"
)

// Session is the per-browser state handed to every route handler.
// Handlers change it through its methods and the Manager persists the result.
type Session struct {
	ID        string
	User      *providers.UserInfo
	CreatedAt time.Time
	ExpiresAt time.Time

	isNew     bool
	modified  bool
	destroyed bool
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		isNew:     true,
	}
}

func fromRecord(r *storage.Record) *Session {
	return &Session{
		ID:        r.ID,
		User:      r.User,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

func (s *Session) toRecord() *storage.Record {
	return &storage.Record{
		ID:        s.ID,
		User:      s.User,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// SetUser stores the authenticated user and marks the session for saving
func (s *Session) SetUser(user *providers.UserInfo) {
	s.User = user
	s.modified = true
}

// IsAuthenticated reports whether a user is attached
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// HasRole reports whether the session user holds role
func (s *Session) HasRole(role string) bool {
	return s != nil && s.User.HasRole(role)
}

// RemainingTTL returns the time left before the stored record expires.
// It is zero for a session that has never been saved.
func (s *Session) RemainingTTL() time.Duration {
	return security.RemainingTTL(s.ExpiresAt)
}

// IsNew reports whether the session has never been persisted
func (s *Session) IsNew() bool { return s.isNew }

// IsModified reports whether the session changed since it was loaded
func (s *Session) IsModified() bool { return s.modified }

// IsDestroyed reports whether Destroy was called
func (s *Session) IsDestroyed() bool { return s.destroyed }
