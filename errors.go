package sessionauth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/giantswarm/sessionauth/security"
)

// Response messages
const (
	MsgAuthCodeMissing    = "Authorization code not provided"
	MsgOAuthFailed        = "OAuth authentication failed"
	MsgNotLoggedIn        = "Not logged in"
	MsgLoggedOut          = "Logged out successfully"
	MsgAccessDenied       = "Access denied. Admins only."
	MsgDashboardWelcome   = "Welcome to the admin dashboard!"
	MsgRegistered         = "User registered successfully!"
	MsgTooManyRequests    = "Too many requests"
	MsgSessionUnavailable = "Session unavailable"
	MsgRegistrationFailed = "Registration failed"
)

// APIError is an error response together with its HTTP status.
// Code is serialized as "error" and Message as "message"; empty fields are omitted.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	default:
		return fmt.Sprintf("%d %s", e.Status, e.Message)
	}
}

// Response returns the JSON body for the error
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Code, Message: e.Message}
}

// NewAPIError creates a new API error
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// Errors returned by the HTTP endpoints
var (
	// ErrAuthCodeMissing is returned when the callback carries no code
	ErrAuthCodeMissing = NewAPIError(http.StatusBadRequest, MsgAuthCodeMissing, "")

	// ErrOAuthFailed hides the failing provider step from the client
	ErrOAuthFailed = NewAPIError(http.StatusInternalServerError, MsgOAuthFailed, "")

	// ErrNotLoggedIn is returned by /auth/me for anonymous sessions
	ErrNotLoggedIn = NewAPIError(http.StatusUnauthorized, "", MsgNotLoggedIn)

	// ErrAccessDenied is returned by the admin role gate
	ErrAccessDenied = NewAPIError(http.StatusForbidden, "", MsgAccessDenied)

	// ErrTooManyRequests is returned when a per-IP limiter rejects a request
	ErrTooManyRequests = NewAPIError(http.StatusTooManyRequests, MsgTooManyRequests, "")

	// ErrSessionUnavailable is returned when the session store cannot be reached
	ErrSessionUnavailable = NewAPIError(http.StatusInternalServerError, MsgSessionUnavailable, "")

	// ErrRegistrationFailed is returned when hashing fails
	ErrRegistrationFailed = NewAPIError(http.StatusInternalServerError, MsgRegistrationFailed, "")

	// ErrNotFound is returned for unknown routes
	ErrNotFound = NewAPIError(http.StatusNotFound, "not_found", "Not Found")
)

// writeJSON writes v as a JSON response with security headers
func writeJSON(w http.ResponseWriter, status int, v any, hsts bool) {
	security.SetSecurityHeaders(w, hsts)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError writes an APIError as JSON
func writeAPIError(w http.ResponseWriter, e *APIError, hsts bool) {
	writeJSON(w, e.Status, e.Response(), hsts)
}
