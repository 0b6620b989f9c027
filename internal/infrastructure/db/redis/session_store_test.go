package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
)

func closedClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	if err := client.Close(); err != nil {
		t.Fatalf("close client: %v", err)
	}
	return client
}

func TestSessionStore_SetToken_WrapsErrors(t *testing.T) {
	store := NewSessionStore(closedClient(t), 0)

	tests := []struct {
		name   string
		token  string
		prefix string
	}{
		{"empty token deletes", "", "delete token: "},
		{"token writes", "tok", "write token: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SetToken(context.Background(), "s1", tt.token)
			if err == nil {
				t.Fatalf("expected error from closed client")
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Fatalf("error = %q, want prefix %q", err.Error(), tt.prefix)
			}
		})
	}
}
