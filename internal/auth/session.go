package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrSessionNotFound is returned by Lookup when the token is unknown
// or has expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore issues and resolves opaque session tokens in redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore wraps client. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Issue creates a new token mapped to the identity id.
func (s *SessionStore) Issue(ctx context.Context, identityID string) (string, error) {
	token := newToken(32)
	if err := s.client.Set(ctx, sessionPrefix+token, identityID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a token to the identity id it was issued for and
// extends its lifetime.
func (s *SessionStore) Lookup(ctx context.Context, token string) (string, error) {
	id, err := s.client.GetEx(ctx, sessionPrefix+token, s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return id, nil
}

// Revoke removes a token. Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
