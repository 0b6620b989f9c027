package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/api/metrics"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

const (
	msgUnableToConnect    = "Unable to connect to the server. Please check your connection and try again."
	msgInvalidCredentials = "Invalid email or password"
	msgLoginFailed        = "Login failed. Please try again."
	msgRateLimited        = "Too many login attempts. Please try again later."
	msgSignupFailed       = "Signup failed. Please try again."
)

// SessionService owns the session lifecycle. Every path that changes the user
// writes the durable store first and then the mirror with the same bytes.
type SessionService struct {
	backend ports.Backend
	store   ports.SessionStore
	mirror  ports.UserMirror
	audit   ports.AuditRecorder
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewSessionService(
	backend ports.Backend,
	store ports.SessionStore,
	mirror ports.UserMirror,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		backend:  backend,
		store:    store,
		mirror:   mirror,
		audit:    audit,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Restore re-establishes the session from the persisted token. Any failure
// leaves the session anonymous with both stores cleared.
func (s *SessionService) Restore(ctx context.Context, sessionID string) (*domain.Session, error) {
	if !s.begin(sessionID) {
		metrics.SessionTransitionsTotal.WithLabelValues("restore", "in_flight").Inc()
		return &domain.Session{ID: sessionID, State: domain.SessionRestoring, Loading: true}, domain.ErrRequestInFlight
	}
	defer s.end(sessionID)

	token, err := s.store.Token(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("read session token failed")
		token = ""
	}
	if token == "" {
		return s.becomeAnonymous(ctx, sessionID, "restore")
	}

	if tokenExpired(token, s.now()) {
		s.log.Info().Str("session_id", sessionID).Msg("persisted token expired")
		s.record(sessionID, nil, domain.AuditRestoreFailed, "token expired")
		return s.becomeAnonymous(ctx, sessionID, "restore")
	}

	user, err := s.backend.CurrentUser(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("session restore failed")
		s.record(sessionID, nil, domain.AuditRestoreFailed, err.Error())
		return s.becomeAnonymous(ctx, sessionID, "restore")
	}

	if err := s.publishUser(ctx, sessionID, user); err != nil {
		return s.becomeAnonymous(ctx, sessionID, "restore")
	}

	metrics.SessionTransitionsTotal.WithLabelValues("restore", "authenticated").Inc()
	s.record(sessionID, user, domain.AuditRestore, "")
	return &domain.Session{ID: sessionID, State: domain.SessionAuthenticated, User: user}, nil
}

// Login authenticates against the backend. On failure the returned session
// keeps its previous state and carries a user-facing error message; the error
// return wraps the underlying cause.
func (s *SessionService) Login(ctx context.Context, sessionID, email, password string) (*domain.Session, error) {
	if !s.begin(sessionID) {
		metrics.SessionTransitionsTotal.WithLabelValues("login", "in_flight").Inc()
		sess := s.snapshot(ctx, sessionID)
		sess.Loading = true
		return sess, domain.ErrRequestInFlight
	}
	defer s.end(sessionID)

	token, user, err := s.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		msg := loginErrorMessage(err)
		result := "failed"
		if apiErr, ok := domain.AsAPIError(err); ok && apiErr.Status == http.StatusTooManyRequests {
			result = "rate_limited"
		}
		metrics.SessionTransitionsTotal.WithLabelValues("login", result).Inc()
		s.log.Warn().Err(err).Str("session_id", sessionID).Str("email", email).Msg("login failed")
		s.audit.Record(domain.AuditEvent{SessionID: sessionID, Email: email, Kind: domain.AuditLoginFailed, Detail: msg})

		sess := s.snapshot(ctx, sessionID)
		sess.Error = msg
		return sess, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		metrics.SessionTransitionsTotal.WithLabelValues("login", "failed").Inc()
		sess := s.snapshot(ctx, sessionID)
		sess.Error = msgLoginFailed
		return sess, fmt.Errorf("login: %w", domain.ErrMalformedResponse)
	}

	if err := s.establish(ctx, sessionID, token, user); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("login", "failed").Inc()
		sess := s.snapshot(ctx, sessionID)
		sess.Error = msgLoginFailed
		return sess, fmt.Errorf("login: %w", err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues("login", "authenticated").Inc()
	s.log.Info().Str("session_id", sessionID).Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
	s.record(sessionID, user, domain.AuditLogin, "")
	return &domain.Session{ID: sessionID, State: domain.SessionAuthenticated, User: user}, nil
}

// Signup registers a new account and signs it in through SetUser.
func (s *SessionService) Signup(ctx context.Context, sessionID string, in ports.SignupInput) (*domain.Session, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return s.snapshot(ctx, sessionID), fmt.Errorf("signup: %w: name, email and password are required", domain.ErrValidation)
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		return s.snapshot(ctx, sessionID), fmt.Errorf("signup: %w: unknown role %q", domain.ErrValidation, in.Role)
	}

	if !s.begin(sessionID) {
		metrics.SessionTransitionsTotal.WithLabelValues("signup", "in_flight").Inc()
		return s.snapshot(ctx, sessionID), domain.ErrRequestInFlight
	}
	defer s.end(sessionID)

	token, user, err := s.backend.Signup(ctx, in)
	if err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("signup", "failed").Inc()
		s.log.Warn().Err(err).Str("session_id", sessionID).Str("email", in.Email).Msg("signup failed")

		sess := s.snapshot(ctx, sessionID)
		if apiErr, ok := domain.AsAPIError(err); ok && apiErr.Status == http.StatusBadRequest {
			sess.Error = domain.ErrUserExists.Error()
			return sess, fmt.Errorf("signup: %w", domain.ErrUserExists)
		}
		sess.Error = signupErrorMessage(err)
		return sess, fmt.Errorf("signup: %w", err)
	}
	if user == nil {
		metrics.SessionTransitionsTotal.WithLabelValues("signup", "failed").Inc()
		return s.snapshot(ctx, sessionID), fmt.Errorf("signup: %w", domain.ErrMalformedResponse)
	}

	if err := s.store.SetToken(ctx, sessionID, token); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("signup", "failed").Inc()
		return s.snapshot(ctx, sessionID), fmt.Errorf("signup: %w: %v", domain.ErrSessionStore, err)
	}
	if err := s.SetUser(ctx, sessionID, user); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("signup", "failed").Inc()
		return s.snapshot(ctx, sessionID), fmt.Errorf("signup: %w", err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues("signup", "authenticated").Inc()
	s.record(sessionID, user, domain.AuditSignup, "")
	return &domain.Session{ID: sessionID, State: domain.SessionAuthenticated, User: user}, nil
}

// Logout tells the backend best-effort and always tears the session down locally.
func (s *SessionService) Logout(ctx context.Context, sessionID string) (*domain.Session, error) {
	if !s.begin(sessionID) {
		metrics.SessionTransitionsTotal.WithLabelValues("logout", "in_flight").Inc()
		return s.snapshot(ctx, sessionID), domain.ErrRequestInFlight
	}
	defer s.end(sessionID)

	prev := s.snapshot(ctx, sessionID)

	token, err := s.store.Token(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("read session token failed")
	}
	if token != "" {
		if err := s.backend.Logout(ctx, token); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("backend logout failed, clearing local session anyway")
		}
	}

	s.record(sessionID, prev.User, domain.AuditLogout, "")
	return s.becomeAnonymous(ctx, sessionID, "logout")
}

// SetUser overrides the session user without a backend round-trip.
func (s *SessionService) SetUser(ctx context.Context, sessionID string, user *domain.User) error {
	if err := s.publishUser(ctx, sessionID, user); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues("set_user", "failed").Inc()
		return err
	}
	result := "authenticated"
	if user == nil {
		result = "anonymous"
	}
	metrics.SessionTransitionsTotal.WithLabelValues("set_user", result).Inc()
	return nil
}

// Current returns the stored user and backend token for sessionID. A session
// without a user yields domain.ErrUnauthenticated.
func (s *SessionService) Current(ctx context.Context, sessionID string) (*domain.User, string, error) {
	raw, err := s.store.User(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("current session: %w: %v", domain.ErrSessionStore, err)
	}
	user, err := decodeUser(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("stored user is unreadable")
		return nil, "", domain.ErrUnauthenticated
	}
	if user == nil {
		return nil, "", domain.ErrUnauthenticated
	}
	token, err := s.store.Token(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("current session: %w: %v", domain.ErrSessionStore, err)
	}
	if token == "" {
		return nil, "", domain.ErrUnauthenticated
	}
	return user, token, nil
}

// establish persists a freshly issued token and user.
func (s *SessionService) establish(ctx context.Context, sessionID, token string, user *domain.User) error {
	if err := s.store.SetToken(ctx, sessionID, token); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSessionStore, err)
	}
	return s.publishUser(ctx, sessionID, user)
}

// publishUser writes user to the durable store and then mirrors the very same
// bytes. The durable store is authoritative: if the mirror write fails the
// durable user is removed so both stores read as absent.
func (s *SessionService) publishUser(ctx context.Context, sessionID string, user *domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.store.SetUser(ctx, sessionID, raw); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("durable session write failed")
		s.invalidate(ctx, sessionID)
		return fmt.Errorf("%w: %v", domain.ErrSessionStore, err)
	}

	if err := s.mirror.Put(ctx, sessionID, raw); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("mirror write failed, clearing durable user")
		if dErr := s.store.SetUser(ctx, sessionID, nil); dErr != nil {
			s.log.Error().Err(dErr).Str("session_id", sessionID).Msg("durable rollback failed")
		}
		return fmt.Errorf("%w: %v", domain.ErrSessionStore, err)
	}
	return nil
}

// becomeAnonymous clears token and user from both stores.
func (s *SessionService) becomeAnonymous(ctx context.Context, sessionID, op string) (*domain.Session, error) {
	sess := &domain.Session{ID: sessionID, State: domain.SessionAnonymous}

	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("clear durable session failed")
		metrics.SessionTransitionsTotal.WithLabelValues(op, "failed").Inc()
		s.invalidate(ctx, sessionID)
		return sess, fmt.Errorf("%s: %w: %v", op, domain.ErrSessionStore, err)
	}
	if err := s.mirror.Put(ctx, sessionID, nil); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("clear mirrored user failed")
		metrics.SessionTransitionsTotal.WithLabelValues(op, "failed").Inc()
		return sess, fmt.Errorf("%s: %w: %v", op, domain.ErrSessionStore, err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues(op, "anonymous").Inc()
	return sess, nil
}

// invalidate removes the user from both stores after a failed durable write.
func (s *SessionService) invalidate(ctx context.Context, sessionID string) {
	if err := s.store.SetUser(ctx, sessionID, nil); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("durable user invalidation failed")
	}
	if err := s.mirror.Put(ctx, sessionID, nil); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("mirror invalidation failed")
	}
}

// snapshot reads the current session without touching the backend.
func (s *SessionService) snapshot(ctx context.Context, sessionID string) *domain.Session {
	raw, err := s.store.User(ctx, sessionID)
	if err != nil {
		return &domain.Session{ID: sessionID, State: domain.SessionUninitialized}
	}
	user, err := decodeUser(raw)
	if err != nil || user == nil {
		return &domain.Session{ID: sessionID, State: domain.SessionAnonymous}
	}
	return &domain.Session{ID: sessionID, State: domain.SessionAuthenticated, User: user}
}

func (s *SessionService) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *SessionService) end(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

func (s *SessionService) record(sessionID string, user *domain.User, kind domain.AuditKind, detail string) {
	ev := domain.AuditEvent{SessionID: sessionID, Kind: kind, Detail: detail}
	if user != nil {
		ev.UserID = user.ID
		ev.Email = user.Email
	}
	s.audit.Record(ev)
}

func encodeUser(u *domain.User) ([]byte, error) {
	if u == nil {
		return nil, nil
	}
	return json.Marshal(u)
}

func decodeUser(raw []byte) (*domain.User, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// tokenExpired reports whether token is a JWT whose exp lies in the past.
// Opaque tokens are never considered expired here; the backend decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// loginErrorMessage turns a backend failure into the message shown to the
// user. Rate-limit messages pass through verbatim.
func loginErrorMessage(err error) string {
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return msgUnableToConnect
	}
	apiErr, ok := domain.AsAPIError(err)
	if !ok {
		return msgLoginFailed
	}
	switch apiErr.Status {
	case http.StatusTooManyRequests:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return msgRateLimited
	case http.StatusBadRequest, http.StatusUnauthorized:
		return msgInvalidCredentials
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return msgLoginFailed
}

func signupErrorMessage(err error) string {
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return msgUnableToConnect
	}
	if apiErr, ok := domain.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgSignupFailed
}
