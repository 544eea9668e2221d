package security

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxLimiterEntries caps the number of client IPs tracked at once
	DefaultMaxLimiterEntries = 10000

	// DefaultLimiterCleanupInterval is how often idle limiters are swept
	DefaultLimiterCleanupInterval = 5 * time.Minute

	// DefaultLimiterIdleTimeout is how long a limiter may go unused before it is dropped
	DefaultLimiterIdleTimeout = 30 * time.Minute
)

// RateLimiter provides per-key token bucket rate limiting with LRU eviction
// so that a flood of distinct client IPs cannot grow memory without bound.
type RateLimiter struct {
	mu     sync.Mutex
	index  *lruIndex[*rate.Limiter]
	limit  rate.Limit
	burst  int
	logger *slog.Logger

	cleanupInterval time.Duration
	idleTimeout     time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalDenied   int64
	totalCleanups int64
}

// NewRateLimiter creates a rate limiter tracking at most DefaultMaxLimiterEntries keys
func NewRateLimiter(requestsPerSecond float64, burst int, logger *slog.Logger) *RateLimiter {
	return NewRateLimiterWithConfig(requestsPerSecond, burst, DefaultMaxLimiterEntries, logger)
}

// NewRateLimiterWithConfig creates a rate limiter with a custom key capacity.
// maxEntries of 0 means unlimited; negative values fall back to the default.
func NewRateLimiterWithConfig(requestsPerSecond float64, burst, maxEntries int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxEntries < 0 {
		logger.Warn("Invalid maxEntries, using default", "maxEntries", maxEntries)
		maxEntries = DefaultMaxLimiterEntries
	}
	if burst < 1 {
		burst = 1
	}

	rl := &RateLimiter{
		index:           newLRUIndex[*rate.Limiter](maxEntries),
		limit:           rate.Limit(requestsPerSecond),
		burst:           burst,
		logger:          logger,
		cleanupInterval: DefaultLimiterCleanupInterval,
		idleTimeout:     DefaultLimiterIdleTimeout,
		stopCleanup:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow reports whether a request for key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, evicted := rl.index.touch(key, time.Now(), func() *rate.Limiter {
		return rate.NewLimiter(rl.limit, rl.burst)
	})
	if evicted != "" {
		rl.logger.Debug("Rate limiter LRU eviction",
			"total_evictions", rl.index.evictions,
			"current_entries", rl.index.len())
	}

	if !entry.value.Allow() {
		rl.totalDenied++
		return false
	}
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup(rl.idleTimeout)
		case <-rl.stopCleanup:
			return
		}
	}
}

// Cleanup removes limiters that have not been used within maxIdleTime
func (rl *RateLimiter) Cleanup(maxIdleTime time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if removed := rl.index.sweep(time.Now(), maxIdleTime); removed > 0 {
		rl.totalCleanups++
		rl.logger.Debug("Rate limiter cleanup completed",
			"removed", removed,
			"remaining", rl.index.len())
	}
}

// Len returns the number of keys currently tracked
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.index.len()
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Stats holds rate limiter statistics for monitoring
type Stats struct {
	CurrentEntries int
	MaxEntries     int // 0 = unlimited
	TotalDenied    int64
	TotalEvictions int64
	TotalCleanups  int64
	MemoryPressure float64 // percentage of MaxEntries in use
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := Stats{
		CurrentEntries: rl.index.len(),
		MaxEntries:     rl.index.maxEntries,
		TotalDenied:    rl.totalDenied,
		TotalEvictions: rl.index.evictions,
		TotalCleanups:  rl.totalCleanups,
	}
	if stats.MaxEntries > 0 {
		stats.MemoryPressure = float64(stats.CurrentEntries) / float64(stats.MaxEntries) * 100.0
	}
	return stats
}
