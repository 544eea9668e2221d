package sessionauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/sessionauth/internal/testutil"
	"github.com/giantswarm/sessionauth/password"
	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/providers/mock"
	"github.com/giantswarm/sessionauth/session"
	storagemock "github.com/giantswarm/sessionauth/storage/mock"
	"github.com/giantswarm/sessionauth/validation"
)

func newTestServer(t *testing.T, p providers.Provider, config *ServerConfig) *Server {
	t.Helper()
	manager, err := session.NewManager(storagemock.NewMockSessionStore(), session.Config{Secret: testSecret}, nil)
	testutil.AssertNoError(t, err)
	hasher, err := password.NewHasher(testSalt)
	testutil.AssertNoError(t, err)
	srv, err := NewServer(p, manager, hasher, config, nil)
	testutil.AssertNoError(t, err)
	return srv
}

func TestNewServer(t *testing.T) {
	manager, _ := session.NewManager(storagemock.NewMockSessionStore(), session.Config{Secret: testSecret}, nil)
	hasher, _ := password.NewHasher(testSalt)
	p := mock.NewMockProvider()

	tests := []struct {
		name     string
		provider providers.Provider
		manager  *session.Manager
		hasher   *password.Hasher
		wantErr  bool
	}{
		{name: "valid", provider: p, manager: manager, hasher: hasher},
		{name: "nil provider", manager: manager, hasher: hasher, wantErr: true},
		{name: "nil manager", provider: p, hasher: hasher, wantErr: true},
		{name: "nil hasher", provider: p, manager: manager, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(tt.provider, tt.manager, tt.hasher, nil, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewServer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if srv.Config.ProviderTimeout != DefaultProviderTimeout || srv.Config.TrustedProxyCount != 1 {
				t.Errorf("defaults not applied: %+v", srv.Config)
			}
		})
	}
}

func TestServer_CompleteLogin_StepErrors(t *testing.T) {
	tests := []struct {
		name      string
		configure func(p *mock.MockProvider)
		wantOp    string
		wantErr   error
	}{
		{
			name: "typed exchange error is kept",
			configure: func(p *mock.MockProvider) {
				p.ExchangeCodeFunc = func(context.Context, string) (*oauth2.Token, error) {
					return nil, &providers.Error{Provider: "mock", Op: providers.OpExchangeCode, Status: 401}
				}
			},
			wantOp: providers.OpExchangeCode,
		},
		{
			name: "plain exchange error is wrapped",
			configure: func(p *mock.MockProvider) {
				p.ExchangeCodeFunc = func(context.Context, string) (*oauth2.Token, error) {
					return nil, context.DeadlineExceeded
				}
			},
			wantOp:  providers.OpExchangeCode,
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "fetch error",
			configure: func(p *mock.MockProvider) {
				p.FetchUserInfoFunc = func(context.Context, *oauth2.Token) (*providers.UserInfo, error) {
					return nil, errors.New("boom")
				}
			},
			wantOp: providers.OpFetchUserInfo,
		},
		{
			name: "nil profile",
			configure: func(p *mock.MockProvider) {
				p.FetchUserInfoFunc = func(context.Context, *oauth2.Token) (*providers.UserInfo, error) {
					return nil, nil
				}
			},
			wantOp: providers.OpFetchUserInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mock.NewMockProvider()
			tt.configure(p)
			srv := newTestServer(t, p, nil)

			user, err := srv.CompleteLogin(context.Background(), "code")
			if user != nil {
				t.Errorf("user = %+v, want nil", user)
			}

			var perr *providers.Error
			if !errors.As(err, &perr) {
				t.Fatalf("error %v is not *providers.Error", err)
			}
			if perr.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", perr.Op, tt.wantOp)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestServer_CompleteLogin_Deadline(t *testing.T) {
	p := mock.NewMockProvider()
	p.ExchangeCodeFunc = func(ctx context.Context, _ string) (*oauth2.Token, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	srv := newTestServer(t, p, &ServerConfig{ProviderTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := srv.CompleteLogin(context.Background(), "code")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("provider timeout not applied")
	}
}

func TestServer_CompleteLogin_AdminEmails(t *testing.T) {
	tests := []struct {
		name     string
		user     providers.UserInfo
		wantRole string
	}{
		{
			name:     "verified listed email",
			user:     providers.UserInfo{ID: "1", Email: "Root@Example.com", EmailVerified: true},
			wantRole: RoleAdmin,
		},
		{
			name: "unverified listed email",
			user: providers.UserInfo{ID: "2", Email: "root@example.com"},
		},
		{
			name: "unlisted email",
			user: providers.UserInfo{ID: "3", Email: "someone@example.com", EmailVerified: true},
		},
		{
			name:     "existing role kept",
			user:     providers.UserInfo{ID: "4", Email: "root@example.com", EmailVerified: true, Role: "owner"},
			wantRole: "owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mock.NewMockProvider()
			p.FetchUserInfoFunc = func(context.Context, *oauth2.Token) (*providers.UserInfo, error) {
				u := tt.user
				return &u, nil
			}
			srv := newTestServer(t, p, &ServerConfig{AdminEmails: []string{"root@example.com"}})

			user, err := srv.CompleteLogin(context.Background(), "code")
			testutil.AssertNoError(t, err)
			if user.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", user.Role, tt.wantRole)
			}
		})
	}
}

func TestServer_Register(t *testing.T) {
	srv := newTestServer(t, mock.NewMockProvider(), nil)

	reg, err := srv.Register(validation.RegistrationInput{Username: " erin ", Email: "E.rin+news@googlemail.com", Password: "password123"})
	testutil.AssertNoError(t, err)

	hasher, _ := password.NewHasher(testSalt)
	want, _ := hasher.Hash("password123")
	if reg.Username != "erin" || reg.Email != "erin@gmail.com" || reg.HashedPassword != want {
		t.Errorf("Register() = %+v", reg)
	}

	_, err = srv.Register(validation.RegistrationInput{Username: "erin!", Email: "erin@example.com", Password: "password123"})
	var verrs validation.Errors
	if !errors.As(err, &verrs) || !verrs.Has(validation.FieldUsername) {
		t.Errorf("Register() error = %v, want username validation error", err)
	}
}
