package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/giantswarm/sessionauth/instrumentation"
)

// Auditor handles security event logging with PII protection.
// User identifiers and usernames are hashed before they are logged.
type Auditor struct {
	logger          *slog.Logger
	enabled         bool
	instrumentation *instrumentation.Instrumentation
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// SetInstrumentation counts audit events in the given metrics holder
func (a *Auditor) SetInstrumentation(inst *instrumentation.Instrumentation) {
	a.instrumentation = inst
}

// Event represents a security audit event
type Event struct {
	Type      string
	UserID    string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII. The request id carried by ctx,
// if any, is attached for correlation.
func (a *Auditor) LogEvent(ctx context.Context, event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	attrs := []any{
		"event_type", event.Type,
		"user_id_hash", HashForLogging(event.UserID),
		"ip_address", event.IPAddress,
		"timestamp", event.Timestamp,
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, "details", event.Details)
	}

	a.logger.InfoContext(ctx, "security_audit", attrs...)

	if a.instrumentation != nil {
		a.instrumentation.Metrics().RecordAuditEvent(ctx, event.Type)
	}
}

// LogLoginSuccess logs a completed provider login
func (a *Auditor) LogLoginSuccess(ctx context.Context, userID, ipAddress, provider string) {
	a.LogEvent(ctx, Event{
		Type:      EventLoginSuccess,
		UserID:    userID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"provider": provider,
		},
	})
}

// LogLoginFailure logs a failed provider step. reason must not contain upstream secrets.
func (a *Auditor) LogLoginFailure(ctx context.Context, ipAddress, provider, step, reason string) {
	a.LogEvent(ctx, Event{
		Type:      EventLoginFailure,
		IPAddress: ipAddress,
		Details: map[string]any{
			"provider": provider,
			"step":     step,
			"reason":   reason,
		},
	})
}

// LogProviderCallbackError logs an error parameter returned by the provider
func (a *Auditor) LogProviderCallbackError(ctx context.Context, ipAddress, provider, providerError string) {
	a.LogEvent(ctx, Event{
		Type:      EventProviderCallbackError,
		IPAddress: ipAddress,
		Details: map[string]any{
			"provider": provider,
			"error":    providerError,
		},
	})
}

// LogLogout logs a session being destroyed. userID is empty for anonymous sessions.
func (a *Auditor) LogLogout(ctx context.Context, userID, ipAddress string) {
	a.LogEvent(ctx, Event{
		Type:      EventLogout,
		UserID:    userID,
		IPAddress: ipAddress,
	})
}

// LogRegistration logs an accepted registration. The username is hashed like a user id.
func (a *Auditor) LogRegistration(ctx context.Context, username, ipAddress string) {
	a.LogEvent(ctx, Event{
		Type:      EventRegistration,
		UserID:    username,
		IPAddress: ipAddress,
	})
}

// LogRegistrationRejected logs which fields failed validation, never their values
func (a *Auditor) LogRegistrationRejected(ctx context.Context, ipAddress string, fields []string) {
	a.LogEvent(ctx, Event{
		Type:      EventRegistrationRejected,
		IPAddress: ipAddress,
		Details: map[string]any{
			"fields": fields,
		},
	})
}

// LogAccessDenied logs a role gate rejection
func (a *Auditor) LogAccessDenied(ctx context.Context, userID, ipAddress, requiredRole, path string) {
	a.LogEvent(ctx, Event{
		Type:      EventAccessDenied,
		UserID:    userID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"required_role": requiredRole,
			"path":          path,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation
func (a *Auditor) LogRateLimitExceeded(ctx context.Context, ipAddress, limiter string) {
	a.LogEvent(ctx, Event{
		Type:      EventRateLimitExceeded,
		IPAddress: ipAddress,
		Details: map[string]any{
			"limiter": limiter,
		},
	})
}

// LogSessionStoreFailure logs an unavailable session store
func (a *Auditor) LogSessionStoreFailure(ctx context.Context, ipAddress, operation string) {
	a.LogEvent(ctx, Event{
		Type:      EventSessionStoreFailure,
		IPAddress: ipAddress,
		Details: map[string]any{
			"operation": operation,
		},
	})
}

// HashForLogging returns a short SHA-256 prefix of a sensitive value for log correlation
func HashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
