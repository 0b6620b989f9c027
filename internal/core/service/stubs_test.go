package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Backend stub
// ---------------------------------------------------------------------------

type stubBackend struct {
	loginFn       func(ctx context.Context, email, password string) (string, *domain.User, error)
	signupFn      func(ctx context.Context, in ports.SignupInput) (string, *domain.User, error)
	logoutErr     error
	currentUserFn func(ctx context.Context, token string) (*domain.User, error)
	forwardFn     func(ctx context.Context, token string, req ports.ForwardRequest) (*ports.ForwardResponse, error)

	logoutCalls      []string
	currentUserCalls int
	forwarded        []ports.ForwardRequest
	asked            []string
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return b.loginFn(ctx, email, password)
}

func (b *stubBackend) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	return b.signupFn(ctx, in)
}

func (b *stubBackend) Logout(_ context.Context, token string) error {
	b.logoutCalls = append(b.logoutCalls, token)
	return b.logoutErr
}

func (b *stubBackend) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	b.currentUserCalls++
	return b.currentUserFn(ctx, token)
}

func (b *stubBackend) DashboardStats(_ context.Context, _ string, tf domain.Timeframe) (json.RawMessage, error) {
	return json.RawMessage(`{"timeframe":"` + string(tf) + `"}`), nil
}

func (b *stubBackend) Ask(_ context.Context, _ string, query string) (json.RawMessage, error) {
	b.asked = append(b.asked, query)
	return json.RawMessage(`{"answer":"ok"}`), nil
}

func (b *stubBackend) Forward(ctx context.Context, token string, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	b.forwarded = append(b.forwarded, req)
	if b.forwardFn != nil {
		return b.forwardFn(ctx, token, req)
	}
	return &ports.ForwardResponse{Status: 200, ContentType: "application/json", Body: []byte(`[]`)}, nil
}

func (b *stubBackend) Ping(context.Context) error { return nil }

// ---------------------------------------------------------------------------
// In-memory stores
// ---------------------------------------------------------------------------

var errStoreDown = errors.New("store down")

type memSessionStore struct {
	tokens     map[string]string
	users      map[string][]byte
	setUserErr error
	clearErr   error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{tokens: map[string]string{}, users: map[string][]byte{}}
}

func (m *memSessionStore) Token(_ context.Context, id string) (string, error) {
	return m.tokens[id], nil
}

func (m *memSessionStore) SetToken(_ context.Context, id, token string) error {
	m.tokens[id] = token
	return nil
}

func (m *memSessionStore) User(_ context.Context, id string) ([]byte, error) {
	return m.users[id], nil
}

func (m *memSessionStore) SetUser(_ context.Context, id string, raw []byte) error {
	if m.setUserErr != nil && raw != nil {
		return m.setUserErr
	}
	if raw == nil {
		delete(m.users, id)
		return nil
	}
	m.users[id] = append([]byte(nil), raw...)
	return nil
}

func (m *memSessionStore) Clear(_ context.Context, id string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.tokens, id)
	delete(m.users, id)
	return nil
}

type memMirror struct {
	users  map[string][]byte
	putErr error
}

func newMemMirror() *memMirror {
	return &memMirror{users: map[string][]byte{}}
}

func (m *memMirror) Put(_ context.Context, id string, raw []byte) error {
	if m.putErr != nil && raw != nil {
		return m.putErr
	}
	if raw == nil {
		delete(m.users, id)
		return nil
	}
	m.users[id] = append([]byte(nil), raw...)
	return nil
}

func (m *memMirror) Get(_ context.Context, id string) ([]byte, error) {
	return m.users[id], nil
}

type memTabStore struct {
	values map[string]string
	getErr error
	sets   int
}

func newMemTabStore() *memTabStore {
	return &memTabStore{values: map[string]string{}}
}

func (m *memTabStore) key(id string, role domain.Role) string {
	return id + ":activeTab_" + string(role)
}

func (m *memTabStore) Get(_ context.Context, id string, role domain.Role) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.values[m.key(id, role)], nil
}

func (m *memTabStore) Set(_ context.Context, id string, role domain.Role, tab domain.Tab) error {
	m.sets++
	m.values[m.key(id, role)] = string(tab)
	return nil
}

// ---------------------------------------------------------------------------
// Audit recorder
// ---------------------------------------------------------------------------

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingAudit) Record(ev domain.AuditEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingAudit) kinds() []domain.AuditKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}
