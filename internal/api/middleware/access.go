package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/api/metrics"
	"github.com/atreo/portal/internal/core/domain"
)

// RequireRole lets through users whose role is one of allowedRoles.
// It must run after LoadSession.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(ContextUser).(*domain.User)
			if _, ok := allowed[user.RoleOrEmpty()]; !ok {
				metrics.AuthzDecisionsTotal.WithLabelValues("role", "deny").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			metrics.AuthzDecisionsTotal.WithLabelValues("role", "allow").Inc()
			return next(c)
		}
	}
}
