package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/sessionauth/instrumentation"
	"github.com/giantswarm/sessionauth/internal/util"
	"github.com/giantswarm/sessionauth/security"
	"github.com/giantswarm/sessionauth/storage"
)

const (
	// storageType labels metrics and spans emitted by this store
	storageType = "memory"

	// sessionIDLogLength is the number of characters of a session ID included in debug logs
	sessionIDLogLength = 8

	// DefaultCleanupInterval is how often expired sessions are swept
	DefaultCleanupInterval = time.Minute
)

// Store is an in-memory implementation of storage.SessionStore
type Store struct {
	mu sync.RWMutex

	sessions map[string]*storage.Record

	// Instrumentation
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer

	// Lock-free count read by the metrics callback
	sessionsCountAtomic atomic.Int64

	// Cleanup
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

var _ storage.SessionStore = (*Store)(nil)

// New creates a new in-memory store with the default cleanup interval
func New() *Store {
	return NewWithInterval(DefaultCleanupInterval)
}

// NewWithInterval creates a new in-memory store with a custom cleanup interval.
// If cleanupInterval is 0 or negative, DefaultCleanupInterval is used.
func NewWithInterval(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	s := &Store{
		sessions:        make(map[string]*storage.Record),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}

	go s.cleanupLoop()

	return s
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetInstrumentation sets OpenTelemetry instrumentation for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
	}
	s.sessionsCountAtomic.Store(int64(len(s.sessions)))
	logger := s.logger
	s.mu.Unlock()

	if inst != nil {
		if err := inst.RegisterSessionCountCallback(s.sessionsCountAtomic.Load); err != nil {
			logger.Warn("Failed to register session count callback", "error", err)
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// Count returns the number of records held, including expired ones not yet swept
func (s *Store) Count() int {
	return int(s.sessionsCountAtomic.Load())
}

// SaveSession stores a copy of record
func (s *Store) SaveSession(ctx context.Context, record *storage.Record, ttl time.Duration) error {
	ctx, span := s.startStorageSpan(ctx, "save_session")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "save_session", err, startTime)
	}()

	if err = record.Validate(); err != nil {
		return err
	}

	stored := record.Clone()
	if ttl > 0 {
		stored.ExpiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.sessions[stored.ID]; !existed {
		s.sessionsCountAtomic.Add(1)
	}
	s.sessions[stored.ID] = stored

	s.logger.Debug("Saved session",
		"session_id_prefix", util.SafeTruncate(stored.ID, sessionIDLogLength),
		"authenticated", stored.User != nil)
	return nil
}

// GetSession returns a copy of the live record for id
func (s *Store) GetSession(ctx context.Context, id string) (*storage.Record, error) {
	ctx, span := s.startStorageSpan(ctx, "get_session")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "get_session", err, startTime)
	}()

	s.mu.RLock()
	record, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		err = fmt.Errorf("%w: %s", storage.ErrSessionNotFound, util.SafeTruncate(id, sessionIDLogLength))
		return nil, err
	}

	// The sweeper removes it later; until then it is simply invisible.
	if security.IsExpired(record.ExpiresAt) {
		err = fmt.Errorf("%w: expired", storage.ErrSessionNotFound)
		return nil, err
	}

	return record.Clone(), nil
}

// DeleteSession removes the record for id
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	ctx, span := s.startStorageSpan(ctx, "delete_session")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "delete_session", err, startTime)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, existed := s.sessions[id]; existed {
		delete(s.sessions, id)
		s.sessionsCountAtomic.Add(-1)
	}

	s.logger.Debug("Deleted session", "session_id_prefix", util.SafeTruncate(id, sessionIDLogLength))
	return nil
}

// ============================================================
// Cleanup
// ============================================================

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0
	for id, record := range s.sessions {
		if security.IsExpired(record.ExpiresAt) {
			delete(s.sessions, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		s.sessionsCountAtomic.Add(int64(-cleaned))
		s.logger.Debug("Cleaned up expired sessions", "count", cleaned, "remaining", len(s.sessions))
	}
}

// ============================================================
// Instrumentation Helpers
// ============================================================

// startStorageSpan starts a new span for a storage operation
func (s *Store) startStorageSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	s.mu.RLock()
	tracer := s.tracer
	s.mu.RUnlock()

	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(
			attribute.String(instrumentation.AttrStorageOperation, operation),
			attribute.String(instrumentation.AttrStorageType, storageType),
		))
}

// recordStorageOperation records metrics for a storage operation and sets span status
func (s *Store) recordStorageOperation(ctx context.Context, span trace.Span, operation string, err error, startTime time.Time) {
	s.mu.RLock()
	inst := s.instrumentation
	s.mu.RUnlock()

	if inst == nil {
		return
	}

	durationMs := float64(time.Since(startTime).Microseconds()) / 1000.0
	result := "success"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	inst.Metrics().RecordStorageOperation(ctx, storageType, operation, result, durationMs)
}
