package security

import "time"

// DefaultClockSkewGracePeriod tolerates small clock differences between replicas
// sharing a session store.
const DefaultClockSkewGracePeriod = 5 * time.Second

// IsExpired reports whether expiresAt has passed, allowing DefaultClockSkewGracePeriod
func IsExpired(expiresAt time.Time) bool {
	return IsExpiredWithGracePeriod(expiresAt, DefaultClockSkewGracePeriod)
}

// IsExpiredWithGracePeriod reports whether expiresAt passed more than gracePeriod ago.
// A zero time never expires.
func IsExpiredWithGracePeriod(expiresAt time.Time, gracePeriod time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().After(expiresAt.Add(gracePeriod))
}

// RemainingTTL returns the time left until expiresAt, or zero when already past
func RemainingTTL(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	if d := time.Until(expiresAt); d > 0 {
		return d
	}
	return 0
}
