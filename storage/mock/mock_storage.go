// Package mock provides a mock implementation of storage.SessionStore for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giantswarm/sessionauth/storage"
)

// MockSessionStore is a mock implementation of storage.SessionStore.
// By default it behaves like a simple map; override the Func fields to inject failures.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*storage.Record

	SaveSessionFunc   func(ctx context.Context, record *storage.Record, ttl time.Duration) error
	GetSessionFunc    func(ctx context.Context, id string) (*storage.Record, error)
	DeleteSessionFunc func(ctx context.Context, id string) error

	CallCounts map[string]int
}

var _ storage.SessionStore = (*MockSessionStore)(nil)

// NewMockSessionStore creates a new mock session store
func NewMockSessionStore() *MockSessionStore {
	m := &MockSessionStore{
		sessions:   make(map[string]*storage.Record),
		CallCounts: make(map[string]int),
	}

	m.SaveSessionFunc = func(_ context.Context, record *storage.Record, _ time.Duration) error {
		if err := record.Validate(); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.sessions[record.ID] = record.Clone()
		return nil
	}

	m.GetSessionFunc = func(_ context.Context, id string) (*storage.Record, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		record, ok := m.sessions[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
		}
		return record.Clone(), nil
	}

	m.DeleteSessionFunc = func(_ context.Context, id string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, id)
		return nil
	}

	return m
}

func (m *MockSessionStore) count(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCounts[method]++
}

// SaveSession saves a session record
func (m *MockSessionStore) SaveSession(ctx context.Context, record *storage.Record, ttl time.Duration) error {
	m.count("SaveSession")
	return m.SaveSessionFunc(ctx, record, ttl)
}

// GetSession retrieves a session record
func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*storage.Record, error) {
	m.count("GetSession")
	return m.GetSessionFunc(ctx, id)
}

// DeleteSession deletes a session record
func (m *MockSessionStore) DeleteSession(ctx context.Context, id string) error {
	m.count("DeleteSession")
	return m.DeleteSessionFunc(ctx, id)
}

// GetCallCount returns the number of calls to method
func (m *MockSessionStore) GetCallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCounts[method]
}

// Len returns the number of records held by the default implementation
func (m *MockSessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
