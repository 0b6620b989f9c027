package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the backend token and the encoded user of a browser
// session under session:<id>:token and session:<id>:user. Every write
// refreshes the TTL of the key it touches.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore whose keys live for ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Token(ctx context.Context, sessionID string) (string, error) {
	v, err := s.client.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return v, nil
}

func (s *SessionStore) SetToken(ctx context.Context, sessionID, token string) error {
	if token == "" {
		if err := s.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, tokenKey(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *SessionStore) User(ctx context.Context, sessionID string) ([]byte, error) {
	v, err := s.client.Get(ctx, userKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	return v, nil
}

func (s *SessionStore) SetUser(ctx context.Context, sessionID string, raw []byte) error {
	if raw == nil {
		if err := s.client.Del(ctx, userKey(sessionID)).Err(); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, userKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// Clear removes token and user in one round trip.
func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKey(sessionID), userKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func tokenKey(sessionID string) string { return "session:" + sessionID + ":token" }

func userKey(sessionID string) string { return "session:" + sessionID + ":user" }
