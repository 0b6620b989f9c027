package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atreo/portal/internal/core/domain"
)

// TabStore keeps the active tab per session and role under
// session:<id>:activeTab_<role>. The TTL slides on every read so an idle
// browser tab forgets its place the way a closed one would.
type TabStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTabStore(client *redis.Client, ttl time.Duration) *TabStore {
	return &TabStore{client: client, ttl: ttl}
}

func (s *TabStore) Get(ctx context.Context, sessionID string, role domain.Role) (string, error) {
	v, err := s.client.GetEx(ctx, tabKey(sessionID, role), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read active tab: %w", err)
	}
	return v, nil
}

func (s *TabStore) Set(ctx context.Context, sessionID string, role domain.Role, tab domain.Tab) error {
	if err := s.client.Set(ctx, tabKey(sessionID, role), string(tab), s.ttl).Err(); err != nil {
		return fmt.Errorf("write active tab: %w", err)
	}
	return nil
}

func tabKey(sessionID string, role domain.Role) string {
	return "session:" + sessionID + ":activeTab_" + string(role)
}
