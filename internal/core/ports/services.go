package ports

import (
	"context"
	"encoding/json"

	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/navigation"
)

// SessionService drives the session lifecycle of one browser session.
type SessionService interface {
	Restore(ctx context.Context, sessionID string) (*domain.Session, error)
	Login(ctx context.Context, sessionID, email, password string) (*domain.Session, error)
	Signup(ctx context.Context, sessionID string, in SignupInput) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) (*domain.Session, error)
	SetUser(ctx context.Context, sessionID string, user *domain.User) error
	Current(ctx context.Context, sessionID string) (user *domain.User, token string, err error)
}

// NavigationView is what the UI needs to draw the shell.
type NavigationView struct {
	ActiveTab domain.Tab               `json:"active_tab"`
	Page      domain.Page              `json:"page"`
	Sidebar   []navigation.SidebarItem `json:"sidebar"`
}

// NavigationService resolves and persists the active tab.
type NavigationService interface {
	Restore(ctx context.Context, sessionID string, user *domain.User) (domain.Tab, error)
	Change(ctx context.Context, sessionID string, user *domain.User, requested string) (domain.Tab, error)
	View(ctx context.Context, sessionID string, user *domain.User) (*NavigationView, error)
}

// PortalService relays data calls to the backend after the portal's own
// authorization check.
type PortalService interface {
	Forward(ctx context.Context, sessionID string, user *domain.User, token string, req ForwardRequest) (*ForwardResponse, error)
	DashboardStats(ctx context.Context, token string, tf domain.Timeframe) (json.RawMessage, error)
	Ask(ctx context.Context, sessionID string, user *domain.User, token, query string) (json.RawMessage, error)
}
