package ports

import (
	"context"

	"github.com/atreo/portal/internal/core/domain"
)

// SessionStore is the durable, authoritative store for a browser session:
// the backend bearer token and the JSON-encoded user.
type SessionStore interface {
	// Token returns "" when no token is stored.
	Token(ctx context.Context, sessionID string) (string, error)
	SetToken(ctx context.Context, sessionID, token string) error
	// User returns nil when no user is stored.
	User(ctx context.Context, sessionID string) ([]byte, error)
	// SetUser stores raw; a nil raw removes the user.
	SetUser(ctx context.Context, sessionID string, raw []byte) error
	// Clear removes token and user.
	Clear(ctx context.Context, sessionID string) error
}

// UserMirror is the user-only projection of SessionStore kept for consumers
// outside the HTTP path. It must hold the same bytes as SessionStore.User.
type UserMirror interface {
	Put(ctx context.Context, sessionID string, raw []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
}

// TabStore keeps the active tab per session and role. Values expire with the
// browser tab they belong to.
type TabStore interface {
	// Get returns "" when nothing is stored.
	Get(ctx context.Context, sessionID string, role domain.Role) (string, error)
	Set(ctx context.Context, sessionID string, role domain.Role, tab domain.Tab) error
}
