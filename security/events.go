package security

// Event type constants for security audit logging.
const (
	// Login flow events

	// EventLoginStarted is logged when a browser is redirected to the provider's consent page
	EventLoginStarted = "login_started"

	// EventLoginSuccess is logged when a provider callback establishes a session user
	EventLoginSuccess = "login_success"

	// EventLoginFailure is logged when code exchange or profile fetch fails
	EventLoginFailure = "login_failure"

	// EventProviderCallbackError is logged when the provider redirects back with an error parameter
	EventProviderCallbackError = "provider_callback_error"

	// EventLogout is logged when a session is destroyed
	EventLogout = "logout"

	// Registration events

	// EventRegistration is logged when a registration is accepted and a hash computed
	EventRegistration = "registration"

	// EventRegistrationRejected is logged when registration input fails validation
	EventRegistrationRejected = "registration_rejected"

	// Security violation events

	// EventAccessDenied is logged when a role gate rejects a request
	EventAccessDenied = "access_denied"

	// EventRateLimitExceeded is logged when a per-IP limit is exceeded
	EventRateLimitExceeded = "rate_limit_exceeded"

	// Operational events

	// EventSessionStoreFailure is logged when the session store cannot be read or written
	EventSessionStoreFailure = "session_store_failure"
)
