// Package security provides the security plumbing of the session authentication server:
// per-IP rate limiting, audit logging with hashed identifiers, security response headers,
// request IDs, client IP resolution and at-rest encryption of session records.
//
// # Rate Limiting
//
// RateLimiter is a per-key token bucket (golang.org/x/time/rate) used on the OAuth
// callback and on registration. WindowLimiter caps accepted registrations per IP
// within a sliding window. Both bound their memory with LRU eviction
// (DefaultMaxLimiterEntries keys) and sweep idle keys in a background goroutine
// that Stop terminates.
//
//	limiter := security.NewRateLimiter(1, 5, logger)
//	defer limiter.Stop()
//
//	ip := security.IPResolver{TrustProxy: cfg.TrustProxy}.ClientIP(r)
//	if !limiter.Allow(ip) {
//	    // 429
//	}
//
// # Audit Logging
//
// Auditor writes a "security_audit" record per event. User identifiers and usernames
// are reduced to a SHA-256 prefix by HashForLogging; passwords, hashes, codes and
// tokens are never passed in.
package security
