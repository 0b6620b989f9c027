package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/domain"
)

// ctxSessionID returns the session id placed by the Auth or OptionalAuth
// middleware. An empty id means the route was wired without either.
func ctxSessionID(c echo.Context) (string, error) {
	sid, _ := c.Get(middleware.ContextSessionID).(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sid, nil
}

// ctxSession returns the session id, user and backend token loaded by
// LoadSession, and fails fast before any service call when one is missing.
func ctxSession(c echo.Context) (sid string, user *domain.User, token string, err error) {
	if sid, err = ctxSessionID(c); err != nil {
		return "", nil, "", err
	}
	user, _ = c.Get(middleware.ContextUser).(*domain.User)
	token, _ = c.Get(middleware.ContextBackendToken).(string)
	if user == nil || token == "" {
		return "", nil, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return sid, user, token, nil
}
