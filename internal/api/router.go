package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/atreo/portal/docs"
	"github.com/atreo/portal/internal/api/handler"
	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

// Dependencies are the wired services the router exposes.
type Dependencies struct {
	Sessions   ports.SessionService
	Navigation ports.NavigationService
	Portal     ports.PortalService
	Audit      ports.AuditService
	Tokens     *middleware.PortalTokens
	Health     map[string]handler.Pinger
	Log        zerolog.Logger

	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string
	// AuthRate is the per-IP request rate allowed on /auth, per second.
	// Zero disables the limit.
	AuthRate float64

	// Registry receives the HTTP metrics. Nil selects the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if len(deps.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "atreo",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Navigation, deps.Tokens)
	navHandler := handler.NewNavigationHandler(deps.Navigation)
	portalHandler := handler.NewPortalHandler(deps.Portal)
	auditHandler := handler.NewAuditHandler(deps.Audit)
	healthHandler := handler.NewHealthHandler(deps.Health)

	requireToken := middleware.Auth(deps.Tokens)
	optionalToken := middleware.OptionalAuth(deps.Tokens)
	loadSession := middleware.LoadSession(deps.Sessions)

	// --- Auth routes ---
	auth := e.Group("/auth")
	if deps.AuthRate > 0 {
		auth.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(deps.AuthRate),
				Burst:     int(deps.AuthRate * 4),
				ExpiresIn: 3 * time.Minute,
			}),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts")
			},
		}))
	}
	auth.POST("/login", authHandler.Login, optionalToken)
	auth.POST("/signup", authHandler.Signup, optionalToken)
	auth.GET("/session", authHandler.Session, optionalToken)
	auth.POST("/logout", authHandler.Logout, requireToken)

	// --- Signed-in routes ---
	v1 := e.Group("/v1", requireToken, loadSession)
	v1.GET("/navigation", navHandler.Get)
	v1.PUT("/navigation/tab", navHandler.ChangeTab)
	v1.GET("/navigation/page", navHandler.Page)
	v1.GET("/permissions", navHandler.Permissions)
	v1.Any("/resources/:resource", portalHandler.Forward)
	v1.Any("/resources/:resource/*", portalHandler.Forward)
	v1.GET("/dashboard/stats", portalHandler.DashboardStats)
	v1.POST("/assistant", portalHandler.Ask)
	v1.GET("/audit", auditHandler.List, middleware.RequireRole(domain.RoleAdmin))

	// --- Health checks (no auth required) ---
	e.GET("/health", healthHandler.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
