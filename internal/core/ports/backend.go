package ports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/atreo/portal/internal/core/domain"
)

// SignupInput carries the fields the backend's signup endpoint accepts.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// ForwardRequest is a CRUD call relayed to the backend on behalf of a user.
type ForwardRequest struct {
	Method      string
	Resource    string
	Path        string // remainder after the resource, may be empty
	Query       url.Values
	Body        []byte
	ContentType string
}

// ForwardResponse is the backend's answer to a ForwardRequest, relayed verbatim.
type ForwardResponse struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Backend is the REST API the portal fronts. Implementations return
// *domain.APIError for non-2xx answers and wrap transport failures in
// domain.ErrBackendUnavailable.
type Backend interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	Signup(ctx context.Context, in SignupInput) (token string, user *domain.User, err error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.User, error)

	DashboardStats(ctx context.Context, token string, tf domain.Timeframe) (json.RawMessage, error)
	Ask(ctx context.Context, token, query string) (json.RawMessage, error)
	Forward(ctx context.Context, token string, req ForwardRequest) (*ForwardResponse, error)

	Ping(ctx context.Context) error
}
