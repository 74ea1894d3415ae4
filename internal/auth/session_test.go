package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, ttl), mr
}

func TestSessionStoreIssueAndLookup(t *testing.T) {
	ctx := t.Context()
	store, _ := newTestSessionStore(t, time.Hour)

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	id, err := store.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if id != "user-1" {
		t.Errorf("Lookup() = %q, want %q", id, "user-1")
	}
}

func TestSessionStoreLookupUnknown(t *testing.T) {
	store, _ := newTestSessionStore(t, time.Hour)

	_, err := store.Lookup(t.Context(), "no-such-token")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Lookup() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := t.Context()
	store, mr := newTestSessionStore(t, time.Minute)

	token, err := store.Issue(ctx, "user-2")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Lookup(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Lookup() after expiry error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreLookupExtendsTTL(t *testing.T) {
	ctx := t.Context()
	store, mr := newTestSessionStore(t, time.Minute)

	token, err := store.Issue(ctx, "user-3")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	mr.FastForward(45 * time.Second)
	if _, err := store.Lookup(ctx, token); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	// The earlier lookup reset the clock, so this would have expired
	// under the original deadline.
	mr.FastForward(45 * time.Second)
	if _, err := store.Lookup(ctx, token); err != nil {
		t.Errorf("Lookup() after refresh error = %v", err)
	}
}

func TestSessionStoreRevoke(t *testing.T) {
	ctx := t.Context()
	store, _ := newTestSessionStore(t, time.Hour)

	token, err := store.Issue(ctx, "user-4")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := store.Lookup(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Lookup() after revoke error = %v, want ErrSessionNotFound", err)
	}

	if err := store.Revoke(ctx, "never-issued"); err != nil {
		t.Errorf("Revoke(unknown) error = %v, want nil", err)
	}
}
