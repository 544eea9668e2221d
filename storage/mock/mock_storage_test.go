package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/sessionauth/storage"
)

func TestMockSessionStore_Defaults(t *testing.T) {
	m := NewMockSessionStore()
	ctx := context.Background()

	if err := m.SaveSession(ctx, &storage.Record{ID: "s1"}, time.Hour); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if _, err := m.GetSession(ctx, "s1"); err != nil {
		t.Errorf("GetSession() error = %v", err)
	}
	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Errorf("DeleteSession() error = %v", err)
	}
	if _, err := m.GetSession(ctx, "s1"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrSessionNotFound", err)
	}

	if got := m.GetCallCount("GetSession"); got != 2 {
		t.Errorf("GetSession calls = %d, want 2", got)
	}
}

func TestMockSessionStore_InjectedFailure(t *testing.T) {
	m := NewMockSessionStore()
	m.GetSessionFunc = func(context.Context, string) (*storage.Record, error) {
		return nil, storage.ErrStoreUnavailable
	}

	if _, err := m.GetSession(context.Background(), "s1"); !errors.Is(err, storage.ErrStoreUnavailable) {
		t.Errorf("GetSession() error = %v, want ErrStoreUnavailable", err)
	}
}
