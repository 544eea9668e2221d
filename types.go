package sessionauth

import (
	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/validation"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	// Error is a short error string
	Error string `json:"error,omitempty"`

	// Message is a human-readable message
	Message string `json:"message,omitempty"`
}

// MessageResponse carries a single message
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is returned by /auth/me
type UserResponse struct {
	// User is the profile stored in the session, exactly as saved
	User *providers.UserInfo `json:"user"`
}

// RegistrationResponse is returned for an accepted registration
type RegistrationResponse struct {
	Message        string `json:"message"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashedPassword"`
}

// ValidationErrorResponse lists every invalid registration field
type ValidationErrorResponse struct {
	Errors validation.Errors `json:"errors"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status string `json:"status"`
}
