package providers

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuth2ConfigExchanger is an interface for the Exchange method of oauth2.Config.
// This allows us to create shared helper functions that work with any provider's config.
type OAuth2ConfigExchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// ExchangeCode exchanges an authorization code using the given HTTP client and wraps
// any failure in *Error. The upstream status code is recorded when the token endpoint
// answered with an error response.
//
// Parameters:
//   - ctx: context for the request (should have timeout set by caller)
//   - name: provider name used in errors
//   - config: OAuth2 config that implements Exchange method
//   - httpClient: custom HTTP client to use for the exchange
//   - code: the authorization code to exchange
func ExchangeCode(ctx context.Context, name string, config OAuth2ConfigExchanger, httpClient *http.Client, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		perr := &Error{Provider: name, Op: OpExchangeCode, Err: err}
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			perr.Status = rerr.Response.StatusCode
		}
		return nil, perr
	}

	return token, nil
}
