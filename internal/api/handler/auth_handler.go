package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

// TokenIssuer signs portal tokens for a session.
type TokenIssuer interface {
	Issue(sessionID string, role domain.Role) (string, error)
}

type AuthHandler struct {
	sessions   ports.SessionService
	navigation ports.NavigationService
	tokens     TokenIssuer
}

func NewAuthHandler(sessions ports.SessionService, navigation ports.NavigationService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{sessions: sessions, navigation: navigation, tokens: tokens}
}

// Login authenticates against the backend and binds the result to the
// caller's session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  sessionResponse
// @Failure      409   {object}  sessionResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  sessionResponse
// @Failure      503   {object}  sessionResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	sess, err := h.sessions.Login(c.Request().Context(), sid, req.Email, req.Password)
	if err != nil {
		return c.JSON(authFailureStatus(err), sessionResponse{Session: sess, Error: sess.Error})
	}
	return h.respond(c, http.StatusOK, sess)
}

// Signup registers a new account and signs it in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      409   {object}  sessionResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  sessionResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	sess, err := h.sessions.Signup(c.Request().Context(), sid, ports.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		msg := sess.Error
		if msg == "" {
			msg = "Signup failed. Please try again."
		}
		return c.JSON(authFailureStatus(err), sessionResponse{Session: sess, Error: msg})
	}
	return h.respond(c, http.StatusCreated, sess)
}

// Logout ends the session locally and, best-effort, at the backend.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}
	if _, err := h.sessions.Logout(c.Request().Context(), sid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session restores the caller's session from the stored backend token.
//
// @Summary      Restore session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      409  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sid, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	if fresh, _ := c.Get(middleware.ContextNewSession).(bool); fresh {
		return h.respond(c, http.StatusOK, &domain.Session{ID: sid, State: domain.SessionAnonymous})
	}

	sess, err := h.sessions.Restore(c.Request().Context(), sid)
	if err != nil {
		if errors.Is(err, domain.ErrRequestInFlight) {
			return c.JSON(http.StatusConflict, sessionResponse{Session: sess, Error: err.Error()})
		}
		return err
	}
	return h.respond(c, http.StatusOK, sess)
}

// respond issues a fresh portal token for sess and, when signed in, resolves
// the active tab.
func (h *AuthHandler) respond(c echo.Context, status int, sess *domain.Session) error {
	var role domain.Role
	if sess.User != nil {
		role = sess.User.Role
	}
	token, err := h.tokens.Issue(sess.ID, role)
	if err != nil {
		return err
	}

	resp := sessionResponse{Token: token, Session: sess}
	if sess.Authenticated() {
		tab, err := h.navigation.Restore(c.Request().Context(), sess.ID, sess.User)
		if err != nil {
			return err
		}
		resp.ActiveTab = tab
	}
	return c.JSON(status, resp)
}

// authFailureStatus picks the HTTP status for a failed login or signup.
// Backend 429 answers are passed through so clients can back off.
func authFailureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrRequestInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBackendUnavailable), errors.Is(err, domain.ErrSessionStore):
		return http.StatusServiceUnavailable
	}
	if apiErr, ok := domain.AsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		case http.StatusBadRequest, http.StatusUnauthorized:
			return http.StatusUnauthorized
		}
	}
	return http.StatusBadGateway
}
