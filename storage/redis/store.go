package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
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
	storageType = "redis"

	// DefaultKeyPrefix namespaces session keys
	DefaultKeyPrefix = "sessionauth:session:"

	// DefaultDialTimeout bounds the initial connection check in New
	DefaultDialTimeout = 5 * time.Second

	sessionIDLogLength = 8
)

// Config configures a Redis-backed session store
type Config struct {
	// URL is a redis:// or rediss:// URL understood by go-redis ParseURL
	URL string

	// KeyPrefix is prepended to every session ID. Defaults to DefaultKeyPrefix.
	KeyPrefix string

	// Encryptor seals records at rest. Nil or disabled stores plain JSON.
	Encryptor *security.Encryptor

	Logger *slog.Logger
}

// Store implements storage.SessionStore on Redis.
// Expiry is delegated to Redis key TTLs.
type Store struct {
	client    goredis.UniversalClient
	prefix    string
	encryptor *security.Encryptor
	logger    *slog.Logger

	mu              sync.RWMutex
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer

	ownsClient bool
}

var _ storage.SessionStore = (*Store)(nil)

// New connects to Redis and verifies the connection with PING
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}

	s := NewFromClient(client, cfg)
	s.ownsClient = true
	return s, nil
}

// NewFromClient wraps an existing client. Close does not close a client passed here.
func NewFromClient(client goredis.UniversalClient, cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Encryptor.IsEnabled() {
		logger.Info("Session encryption at rest enabled for redis store")
	}

	return &Store{
		client:    client,
		prefix:    prefix,
		encryptor: cfg.Encryptor,
		logger:    logger,
	}
}

// SetInstrumentation sets OpenTelemetry instrumentation for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
	}
}

// Ping checks connectivity to Redis
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool if the store created it
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// SaveSession writes record as JSON with the given TTL
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
	} else {
		ttl = 0
	}

	var data []byte
	data, err = s.encode(stored)
	if err != nil {
		return err
	}

	if err = s.client.Set(ctx, s.key(stored.ID), data, ttl).Err(); err != nil {
		err = fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
		return err
	}

	s.logger.Debug("Saved session",
		"session_id_prefix", util.SafeTruncate(stored.ID, sessionIDLogLength),
		"authenticated", stored.User != nil,
		"ttl", ttl)
	return nil
}

// GetSession reads and decodes the record for id
func (s *Store) GetSession(ctx context.Context, id string) (*storage.Record, error) {
	ctx, span := s.startStorageSpan(ctx, "get_session")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "get_session", err, startTime)
	}()

	var data []byte
	data, err = s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			err = fmt.Errorf("%w: %s", storage.ErrSessionNotFound, util.SafeTruncate(id, sessionIDLogLength))
			return nil, err
		}
		err = fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
		return nil, err
	}

	var record *storage.Record
	record, err = s.decode(id, data)
	if err != nil {
		// Unreadable after a key rotation or a format change. Drop it so the
		// browser starts over with a fresh session.
		s.logger.Warn("Discarding undecodable session record",
			"session_id_prefix", util.SafeTruncate(id, sessionIDLogLength),
			"error", err)
		if derr := s.client.Del(ctx, s.key(id)).Err(); derr != nil {
			s.logger.Warn("Failed to delete undecodable session record", "error", derr)
		}
		err = fmt.Errorf("%w: %w", storage.ErrSessionNotFound, err)
		return nil, err
	}

	// Key TTL is authoritative; this guards records written without one.
	if security.IsExpired(record.ExpiresAt) {
		err = fmt.Errorf("%w: expired", storage.ErrSessionNotFound)
		return nil, err
	}

	return record, nil
}

// DeleteSession removes the key for id
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	ctx, span := s.startStorageSpan(ctx, "delete_session")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "delete_session", err, startTime)
	}()

	if err = s.client.Del(ctx, s.key(id)).Err(); err != nil {
		err = fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
		return err
	}

	s.logger.Debug("Deleted session", "session_id_prefix", util.SafeTruncate(id, sessionIDLogLength))
	return nil
}

// encode marshals the record and seals it bound to its ID
func (s *Store) encode(record *storage.Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	sealed, err := s.encryptor.Seal(data, []byte(record.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt session: %w", err)
	}
	return sealed, nil
}

// decode opens and unmarshals a stored value. A record whose ID does not match
// the key it was read from is rejected.
func (s *Store) decode(id string, data []byte) (*storage.Record, error) {
	plaintext, err := s.encryptor.Open(data, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var record storage.Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if record.ID != id {
		return nil, fmt.Errorf("%w: record id does not match key", storage.ErrInvalidRecord)
	}
	return &record, nil
}

// ============================================================
// Instrumentation Helpers
// ============================================================

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
