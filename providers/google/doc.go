// Package google provides a Google OAuth 2.0 provider implementation.
//
// This package implements the providers.Provider interface for Google's OAuth 2.0
// authorization server. The login requests the "email" and "profile" scopes by
// default, exchanges the authorization code at Google's token endpoint with the
// client credentials sent in the request body, and reads the profile from the
// v2 userinfo endpoint.
//
// Example usage:
//
//	provider, err := google.NewProvider(&google.Config{
//	    ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
//	    ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
//	    RedirectURL:  "http://localhost:5000/auth/google/callback",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Endpoints can be overridden for testing against a local server.
package google
