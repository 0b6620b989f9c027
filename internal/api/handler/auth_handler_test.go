package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
	"github.com/atreo/portal/internal/core/service"
)

func newAuthHandler(sessions ports.SessionService) *AuthHandler {
	nav := service.NewNavigationService(newMemTabStore(), discardAudit{}, zerolog.Nop())
	return NewAuthHandler(sessions, nav, middleware.NewPortalTokens("secret", time.Hour))
}

func decodeSession(t *testing.T, body []byte) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(_ context.Context, sid, email, password string) (*domain.Session, error) {
			if sid != "sid-1" || email != "a@b.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", sid, email, password)
			}
			return &domain.Session{ID: sid, State: domain.SessionAuthenticated, User: &domain.User{ID: "u1", Role: domain.RoleUser}}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret"}`, nil)

	if err := newAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeSession(t, rec.Body.Bytes())
	if resp.Token == "" {
		t.Fatalf("expected a portal token")
	}
	if resp.ActiveTab != domain.TabDashboard {
		t.Fatalf("expected dashboard, got %q", resp.ActiveTab)
	}
	if resp.Session.Loading || resp.Session.User.Role != domain.RoleUser {
		t.Fatalf("unexpected session %+v", resp.Session)
	}
}

func TestAuthHandler_Login_RateLimitPassthrough(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(_ context.Context, sid, _, _ string) (*domain.Session, error) {
			return &domain.Session{ID: sid, State: domain.SessionAnonymous, Error: "Too many attempts"},
				&domain.APIError{Status: http.StatusTooManyRequests, Message: "Too many attempts"}
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret"}`, nil)

	if err := newAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if resp := decodeSession(t, rec.Body.Bytes()); resp.Error != "Too many attempts" {
		t.Fatalf("expected verbatim message, got %q", resp.Error)
	}
}

func TestAuthHandler_Login_Statuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad credentials", &domain.APIError{Status: 401}, http.StatusUnauthorized},
		{"backend down", domain.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"in flight", domain.ErrRequestInFlight, http.StatusConflict},
		{"server error", &domain.APIError{Status: 500}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSessionService{
				loginFn: func(_ context.Context, sid, _, _ string) (*domain.Session, error) {
					return &domain.Session{ID: sid, State: domain.SessionAnonymous, Error: "x"}, tt.err
				},
			}
			c, rec := newContext(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret"}`, nil)
			if err := newAuthHandler(stub).Login(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login_ValidationBeforeNetwork(t *testing.T) {
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string, string) (*domain.Session, error) {
			t.Fatalf("invalid input must not reach the session service")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"email":"not-an-email","password":""}`, nil)

	err := newAuthHandler(stub).Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	stub := &stubSessionService{
		signupFn: func(_ context.Context, sid string, in ports.SignupInput) (*domain.Session, error) {
			if in.Role != "" {
				t.Fatalf("role must be left for the service to default, got %q", in.Role)
			}
			return &domain.Session{ID: sid, State: domain.SessionAuthenticated, User: &domain.User{ID: "u2", Role: domain.RoleUser}}, nil
		},
	}
	body := `{"name":"Ana","email":"ana@atreo.io","password":"longenough","confirm_password":"longenough"}`
	c, rec := newContext(http.MethodPost, "/auth/signup", body, nil)

	if err := newAuthHandler(stub).Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_Signup_PasswordRules(t *testing.T) {
	stub := &stubSessionService{
		signupFn: func(context.Context, string, ports.SignupInput) (*domain.Session, error) {
			t.Fatalf("invalid input must not reach the session service")
			return nil, nil
		},
	}
	bodies := []string{
		`{"name":"Ana","email":"ana@atreo.io","password":"short","confirm_password":"short"}`,
		`{"name":"Ana","email":"ana@atreo.io","password":"longenough","confirm_password":"different"}`,
		`{"name":"Ana","email":"ana@atreo.io","password":"longenough","confirm_password":"longenough","role":"root"}`,
	}
	for _, body := range bodies {
		c, _ := newContext(http.MethodPost, "/auth/signup", body, nil)
		err := newAuthHandler(stub).Signup(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for %s, got %v", body, err)
		}
	}
}

func TestAuthHandler_Signup_UserExists(t *testing.T) {
	stub := &stubSessionService{
		signupFn: func(_ context.Context, sid string, _ ports.SignupInput) (*domain.Session, error) {
			return &domain.Session{ID: sid, State: domain.SessionAnonymous, Error: domain.ErrUserExists.Error()}, domain.ErrUserExists
		},
	}
	body := `{"name":"Ana","email":"ana@atreo.io","password":"longenough","confirm_password":"longenough"}`
	c, rec := newContext(http.MethodPost, "/auth/signup", body, nil)

	if err := newAuthHandler(stub).Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	stub := &stubSessionService{}
	c, rec := newContext(http.MethodPost, "/auth/logout", "", nil)

	if err := newAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(stub.loggedOut) != 1 || stub.loggedOut[0] != "sid-1" {
		t.Fatalf("unexpected logout calls %v", stub.loggedOut)
	}
}

func TestAuthHandler_Session_NewBrowserSkipsRestore(t *testing.T) {
	stub := &stubSessionService{
		restoreFn: func(context.Context, string) (*domain.Session, error) {
			t.Fatalf("a freshly minted session has nothing to restore")
			return nil, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/auth/session", "", nil)
	c.Set(middleware.ContextNewSession, true)

	if err := newAuthHandler(stub).Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeSession(t, rec.Body.Bytes())
	if resp.Token == "" || resp.Session.State != domain.SessionAnonymous {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAuthHandler_Session_Restores(t *testing.T) {
	stub := &stubSessionService{
		restoreFn: func(_ context.Context, sid string) (*domain.Session, error) {
			return &domain.Session{ID: sid, State: domain.SessionAuthenticated, User: &domain.User{ID: "a1", Role: domain.RoleAdmin}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/auth/session", "", nil)

	if err := newAuthHandler(stub).Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeSession(t, rec.Body.Bytes())
	if !resp.Session.Authenticated() || resp.ActiveTab != domain.TabDashboard {
		t.Fatalf("unexpected response %+v", resp)
	}
}
