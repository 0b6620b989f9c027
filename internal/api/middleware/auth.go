package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

// Context keys set by the middleware in this package.
const (
	ContextSessionID    = "session_id"
	ContextNewSession   = "new_session"
	ContextUser         = "user"
	ContextBackendToken = "backend_token"
)

// Auth validates the portal token and injects its session id into context.
func Auth(tokens *PortalTokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearer(c)
			if err != nil {
				return err
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextSessionID, claims.SessionID)
			return next(c)
		}
	}
}

// OptionalAuth is Auth for endpoints an anonymous browser may call. Without a
// usable token a fresh session id is minted and ContextNewSession is set.
func OptionalAuth(tokens *PortalTokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, err := bearer(c); err == nil {
				if claims, err := tokens.Parse(raw); err == nil {
					c.Set(ContextSessionID, claims.SessionID)
					return next(c)
				}
			}
			c.Set(ContextSessionID, uuid.NewString())
			c.Set(ContextNewSession, true)
			return next(c)
		}
	}
}

// LoadSession resolves the session id placed by Auth into the stored user and
// backend token. Requests from signed-out sessions stop here with 401.
func LoadSession(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, _ := c.Get(ContextSessionID).(string)
			if sid == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			user, token, err := sessions.Current(c.Request().Context(), sid)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
				}
				return err
			}

			c.Set(ContextUser, user)
			c.Set(ContextBackendToken, token)
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
