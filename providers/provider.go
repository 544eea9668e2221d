package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider defines the interface for OAuth identity providers.
type Provider interface {
	// Name returns the provider name (e.g., "google")
	Name() string

	// AuthorizationURL returns the URL to redirect users to for authentication
	AuthorizationURL() string

	// ExchangeCode exchanges an authorization code for tokens.
	// Failures are returned as *Error with Op set to OpExchangeCode.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserInfo retrieves the user's profile using an access token.
	// Failures are returned as *Error with Op set to OpFetchUserInfo.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// UserInfo is the user profile kept in a session.
// Every field is optional so a profile round-trips through JSON unchanged.
type UserInfo struct {
	// ID is the unique user identifier from the provider
	ID string `json:"id,omitempty"`

	// Email is the user's email address
	Email string `json:"email,omitempty"`

	// EmailVerified indicates if the email is verified
	EmailVerified bool `json:"verified_email,omitempty"`

	// Name is the user's full name
	Name string `json:"name,omitempty"`

	// GivenName is the user's first name
	GivenName string `json:"given_name,omitempty"`

	// FamilyName is the user's last name
	FamilyName string `json:"family_name,omitempty"`

	// Picture is the URL of the user's profile picture
	Picture string `json:"picture,omitempty"`

	// Locale is the user's preferred locale
	Locale string `json:"locale,omitempty"`

	// Role is the application role. Providers never set it.
	Role string `json:"role,omitempty"`
}

// HasRole reports whether the user holds the given role. A nil user holds no role.
func (u *UserInfo) HasRole(role string) bool {
	return u != nil && role != "" && u.Role == role
}
