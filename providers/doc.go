// Package providers defines the OAuth identity provider interface and the user
// profile type stored in sessions.
//
// A login through a provider is a single-shot authorization code flow:
//
//  1. AuthorizationURL builds the URL the browser is redirected to.
//  2. ExchangeCode trades the returned authorization code for an access token.
//  3. FetchUserInfo reads the user profile with that access token.
//
// Each step reports failure as a *Error carrying the step name, so the HTTP layer
// can log which step failed without inspecting provider-specific errors.
//
// Implementations are provided in subpackages:
//   - providers/google: Google OAuth 2.0 provider
//   - providers/mock: Mock provider for testing
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
//	http.Redirect(w, r, provider.AuthorizationURL(), http.StatusFound)
package providers
