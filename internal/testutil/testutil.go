package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giantswarm/sessionauth/providers"
	"github.com/giantswarm/sessionauth/storage"
)

// GenerateTestUserInfo creates a profile as returned by the Google userinfo endpoint
func GenerateTestUserInfo() *providers.UserInfo {
	return &providers.UserInfo{
		ID:            "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
		Name:          "Test User",
		GivenName:     "Test",
		FamilyName:    "User",
		Picture:       "https://example.com/photo.jpg",
		Locale:        "en",
	}
}

// GenerateTestAdmin creates a profile carrying the admin role
func GenerateTestAdmin() *providers.UserInfo {
	return &providers.UserInfo{ID: "u1", Role: "admin"}
}

// GenerateTestRecord creates a session record for user that expires in an hour
func GenerateTestRecord(user *providers.UserInfo) *storage.Record {
	now := time.Now()
	return &storage.Record{
		ID:        GenerateRandomString(36),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

// GenerateRandomString generates a random base64url string of the given length
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// GoogleServer is a fake token and userinfo endpoint pair
type GoogleServer struct {
	*httptest.Server

	// TokenStatus and UserInfoStatus override the HTTP status of each endpoint when non-zero
	TokenStatus    int
	UserInfoStatus int

	// User is returned by the userinfo endpoint
	User *providers.UserInfo

	tokenCalls    atomic.Int64
	userInfoCalls atomic.Int64
}

// NewGoogleServer starts a fake Google OAuth backend. It is closed with t.Cleanup.
func NewGoogleServer(t *testing.T) *GoogleServer {
	t.Helper()

	gs := &GoogleServer{User: GenerateTestUserInfo()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		gs.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if gs.TokenStatus != 0 && gs.TokenStatus != http.StatusOK {
			w.WriteHeader(gs.TokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		gs.userInfoCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if gs.UserInfoStatus != 0 && gs.UserInfoStatus != http.StatusOK {
			w.WriteHeader(gs.UserInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gs.User)
	})

	gs.Server = httptest.NewServer(mux)
	t.Cleanup(gs.Close)
	return gs
}

// TokenURL returns the fake token endpoint
func (gs *GoogleServer) TokenURL() string { return gs.URL + "/token" }

// UserInfoURL returns the fake userinfo endpoint
func (gs *GoogleServer) UserInfoURL() string { return gs.URL + "/userinfo" }

// TokenCalls returns how many times the token endpoint was hit
func (gs *GoogleServer) TokenCalls() int64 { return gs.tokenCalls.Load() }

// UserInfoCalls returns how many times the userinfo endpoint was hit
func (gs *GoogleServer) UserInfoCalls() int64 { return gs.userInfoCalls.Load() }

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

// AssertStatus fails the test if the recorded response has an unexpected status
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

// DecodeJSON decodes the recorded response body into a generic map
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v; body: %s", err, w.Body.String())
	}
	return body
}
