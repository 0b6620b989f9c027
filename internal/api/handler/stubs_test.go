package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

type stubSessionService struct {
	loginFn   func(ctx context.Context, sid, email, password string) (*domain.Session, error)
	signupFn  func(ctx context.Context, sid string, in ports.SignupInput) (*domain.Session, error)
	restoreFn func(ctx context.Context, sid string) (*domain.Session, error)
	logoutErr error

	loggedOut []string
}

func (s *stubSessionService) Restore(ctx context.Context, sid string) (*domain.Session, error) {
	return s.restoreFn(ctx, sid)
}

func (s *stubSessionService) Login(ctx context.Context, sid, email, password string) (*domain.Session, error) {
	return s.loginFn(ctx, sid, email, password)
}

func (s *stubSessionService) Signup(ctx context.Context, sid string, in ports.SignupInput) (*domain.Session, error) {
	return s.signupFn(ctx, sid, in)
}

func (s *stubSessionService) Logout(_ context.Context, sid string) (*domain.Session, error) {
	s.loggedOut = append(s.loggedOut, sid)
	return &domain.Session{ID: sid, State: domain.SessionAnonymous}, s.logoutErr
}

func (s *stubSessionService) SetUser(context.Context, string, *domain.User) error { return nil }

func (s *stubSessionService) Current(context.Context, string) (*domain.User, string, error) {
	return nil, "", domain.ErrUnauthenticated
}

type memTabStore struct {
	values map[string]string
}

func newMemTabStore() *memTabStore { return &memTabStore{values: map[string]string{}} }

func (m *memTabStore) Get(_ context.Context, sid string, role domain.Role) (string, error) {
	return m.values[sid+":"+string(role)], nil
}

func (m *memTabStore) Set(_ context.Context, sid string, role domain.Role, tab domain.Tab) error {
	m.values[sid+":"+string(role)] = string(tab)
	return nil
}

type discardAudit struct{}

func (discardAudit) Record(domain.AuditEvent) {}

type stubPortal struct {
	forwardFn func(req ports.ForwardRequest) (*ports.ForwardResponse, error)
	statsTF   domain.Timeframe
}

func (p *stubPortal) Forward(_ context.Context, _ string, _ *domain.User, _ string, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	return p.forwardFn(req)
}

func (p *stubPortal) DashboardStats(_ context.Context, _ string, tf domain.Timeframe) (json.RawMessage, error) {
	p.statsTF = tf
	return json.RawMessage(`{"total":1}`), nil
}

func (p *stubPortal) Ask(context.Context, string, *domain.User, string, string) (json.RawMessage, error) {
	return json.RawMessage(`{"answer":"42"}`), nil
}

// newContext builds an echo context carrying a JSON body and, when user is
// non-nil, the values LoadSession would have injected.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextSessionID, "sid-1")
	if user != nil {
		c.Set(middleware.ContextUser, user)
		c.Set(middleware.ContextBackendToken, "backend-token")
	}
	return c, rec
}
