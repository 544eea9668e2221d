package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/sessionauth/providers"
)

var (
	// ErrSessionNotFound is returned when no live record exists for a session ID.
	// Expired records are reported as not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable is returned when the backend cannot be reached
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrInvalidRecord is returned when a record is nil or has no ID
	ErrInvalidRecord = errors.New("invalid session record")
)

// Record is the persisted form of a session
type Record struct {
	ID        string              `json:"id"`
	User      *providers.UserInfo `json:"user,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at,omitempty"`
}

// Validate checks that the record can be stored
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidRecord)
	}
	return nil
}

// Clone returns a deep copy so stored records are not aliased by callers
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.User != nil {
		u := *r.User
		c.User = &u
	}
	return &c
}

// SessionStore persists session records.
// Implementations must be safe for concurrent use.
// All methods accept context.Context for tracing and cancellation.
type SessionStore interface {
	// SaveSession creates or replaces the record under record.ID.
	// A positive ttl bounds the record's lifetime; zero or negative means no expiry.
	SaveSession(ctx context.Context, record *Record, ttl time.Duration) error

	// GetSession returns the record for id or an error wrapping ErrSessionNotFound
	GetSession(ctx context.Context, id string) (*Record, error)

	// DeleteSession removes the record for id. Deleting a missing record is not an error.
	DeleteSession(ctx context.Context, id string) error
}
