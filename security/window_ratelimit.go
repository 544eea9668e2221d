package security

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxRegistrationsPerWindow is the default number of accepted registrations per IP
	DefaultMaxRegistrationsPerWindow = 10

	// DefaultRegistrationWindow is the default sliding window for registration limiting
	DefaultRegistrationWindow = time.Hour

	// DefaultRegistrationCleanupInterval is how often idle entries are swept
	DefaultRegistrationCleanupInterval = 15 * time.Minute
)

// WindowLimiter allows at most maxPerWindow events per key within a sliding time
// window. It backs the per-IP cap on accepted account registrations.
type WindowLimiter struct {
	mu           sync.Mutex
	index        *lruIndex[[]time.Time]
	maxPerWindow int
	window       time.Duration
	logger       *slog.Logger

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalBlocked int64
	totalAllowed int64
}

// NewWindowLimiter creates a sliding window limiter with DefaultMaxLimiterEntries capacity
func NewWindowLimiter(maxPerWindow int, window time.Duration, logger *slog.Logger) *WindowLimiter {
	return newWindowLimiter(maxPerWindow, window, DefaultMaxLimiterEntries, DefaultRegistrationCleanupInterval, logger)
}

func newWindowLimiter(maxPerWindow int, window time.Duration, maxEntries int, cleanupInterval time.Duration, logger *slog.Logger) *WindowLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPerWindow <= 0 {
		logger.Warn("Invalid maxPerWindow, using default", "maxPerWindow", maxPerWindow)
		maxPerWindow = DefaultMaxRegistrationsPerWindow
	}
	if window <= 0 {
		logger.Warn("Invalid window, using default", "window", window)
		window = DefaultRegistrationWindow
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultRegistrationCleanupInterval
	}

	wl := &WindowLimiter{
		index:           newLRUIndex[[]time.Time](maxEntries),
		maxPerWindow:    maxPerWindow,
		window:          window,
		logger:          logger,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go wl.cleanupLoop()

	return wl
}

// Allow records an event for key and reports whether it fits in the window.
// Rejected events are not recorded.
func (wl *WindowLimiter) Allow(key string) bool {
	now := time.Now()
	windowStart := now.Add(-wl.window)

	wl.mu.Lock()
	defer wl.mu.Unlock()

	entry, _ := wl.index.touch(key, now, func() []time.Time { return nil })

	// Drop timestamps that fell out of the window, in place.
	kept := entry.value[:0]
	for _, t := range entry.value {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	entry.value = kept

	if len(entry.value) >= wl.maxPerWindow {
		wl.totalBlocked++
		wl.logger.Warn("Registration window limit exceeded",
			"events_in_window", len(entry.value),
			"max_per_window", wl.maxPerWindow,
			"window", wl.window)
		return false
	}

	entry.value = append(entry.value, now)
	wl.totalAllowed++
	return true
}

func (wl *WindowLimiter) cleanupLoop() {
	ticker := time.NewTicker(wl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wl.Cleanup()
		case <-wl.stopCleanup:
			return
		}
	}
}

// Cleanup drops keys idle for more than twice the window
func (wl *WindowLimiter) Cleanup() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	if removed := wl.index.sweep(time.Now(), 2*wl.window); removed > 0 {
		wl.logger.Debug("Registration window limiter cleanup completed",
			"removed", removed,
			"remaining", wl.index.len())
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (wl *WindowLimiter) Stop() {
	wl.stopOnce.Do(func() {
		close(wl.stopCleanup)
	})
}

// WindowStats holds window limiter statistics for monitoring
type WindowStats struct {
	CurrentEntries int
	TotalBlocked   int64
	TotalAllowed   int64
	TotalEvictions int64
	MaxPerWindow   int
	Window         time.Duration
}

// GetStats returns current window limiter statistics
func (wl *WindowLimiter) GetStats() WindowStats {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	return WindowStats{
		CurrentEntries: wl.index.len(),
		TotalBlocked:   wl.totalBlocked,
		TotalAllowed:   wl.totalAllowed,
		TotalEvictions: wl.index.evictions,
		MaxPerWindow:   wl.maxPerWindow,
		Window:         wl.window,
	}
}
