package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/sessionauth/providers"
)

// Google endpoints
const (
	DefaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL    = "https://oauth2.googleapis.com/token"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// DefaultTimeout bounds each outbound call when no HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

// Provider implements the providers.Provider interface for Google OAuth.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// Config holds Google OAuth configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client // Optional custom HTTP client

	// Timeout applies to the default HTTP client. Ignored when HTTPClient is set.
	Timeout time.Duration

	// Endpoint overrides, mainly for tests. Empty values use Google's endpoints.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// NewProvider creates a new Google OAuth provider
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect URL is required")
	}

	// Default scopes if none provided
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "profile"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   valueOr(cfg.AuthURL, DefaultAuthURL),
				TokenURL:  valueOr(cfg.TokenURL, DefaultTokenURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: valueOr(cfg.UserInfoURL, DefaultUserInfoURL),
		httpClient:  httpClient,
	}, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "google"
}

// AuthorizationURL generates the Google OAuth authorization URL.
// It carries client_id, redirect_uri, response_type=code and the configured scopes.
func (p *Provider) AuthorizationURL() string {
	return p.config.AuthCodeURL("")
}

// ExchangeCode exchanges an authorization code for tokens
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, &providers.Error{Provider: p.Name(), Op: providers.OpExchangeCode, Err: errors.New("authorization code is empty")}
	}
	return providers.ExchangeCode(ctx, p.Name(), p.config, p.httpClient, code)
}

// tokenClient returns a client that authorizes requests with token on top of the
// provider's HTTP client. The token is used as is and never refreshed.
func (p *Provider) tokenClient(ctx context.Context, token *oauth2.Token) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = p.httpClient.Timeout
	return client
}

// googleUserInfo is the v2 userinfo response
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// FetchUserInfo calls Google's userinfo endpoint with the access token as a bearer credential
func (p *Provider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*providers.UserInfo, error) {
	fail := func(status int, err error) error {
		return &providers.Error{Provider: p.Name(), Op: providers.OpFetchUserInfo, Status: status, Err: err}
	}

	if token == nil || token.AccessToken == "" {
		return nil, fail(0, errors.New("access token is empty"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.tokenClient(ctx, token).Do(req)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to get user info: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail(resp.StatusCode, errors.New("userinfo request rejected"))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("failed to decode user info: %w", err))
	}

	return &providers.UserInfo{
		ID:            info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		Picture:       info.Picture,
		Locale:        info.Locale,
	}, nil
}
