package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

const maxForwardBody = 10 << 20

type statsQuery struct {
	Timeframe string `query:"timeframe" json:"timeframe" validate:"omitempty,oneof=1month 3months 6months 1year"`
}

type askRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
}

// PortalHandler relays data calls to the backend.
type PortalHandler struct {
	portal ports.PortalService
}

func NewPortalHandler(portal ports.PortalService) *PortalHandler {
	return &PortalHandler{portal: portal}
}

// Forward relays a CRUD call on a backend resource after the portal's own
// permission check. The backend's status, content type and body are returned
// verbatim.
//
// @Summary      Resource gateway
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource  path  string  true  "Backend resource"
// @Success      200
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/resources/{resource} [get]
// @Router       /v1/resources/{resource} [post]
// @Router       /v1/resources/{resource} [put]
// @Router       /v1/resources/{resource} [patch]
// @Router       /v1/resources/{resource} [delete]
func (h *PortalHandler) Forward(c echo.Context) error {
	sid, user, token, err := ctxSession(c)
	if err != nil {
		return err
	}

	req := c.Request()
	var body []byte
	if req.Body != nil && req.Method != http.MethodGet && req.Method != http.MethodHead {
		body, err = io.ReadAll(io.LimitReader(req.Body, maxForwardBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
		}
	}

	resp, err := h.portal.Forward(req.Context(), sid, user, token, ports.ForwardRequest{
		Method:      req.Method,
		Resource:    c.Param("resource"),
		Path:        strings.Trim(c.Param("*"), "/"),
		Query:       c.QueryParams(),
		Body:        body,
		ContentType: req.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return err
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	if len(resp.Body) == 0 {
		return c.NoContent(resp.Status)
	}
	return c.Blob(resp.Status, contentType, resp.Body)
}

// DashboardStats returns the dashboard figures for a timeframe.
//
// @Summary      Dashboard statistics
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        timeframe  query  string  false  "1month, 3months, 6months or 1year"
// @Success      200
// @Failure      401  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/dashboard/stats [get]
func (h *PortalHandler) DashboardStats(c echo.Context) error {
	_, _, token, err := ctxSession(c)
	if err != nil {
		return err
	}

	var q statsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	stats, err := h.portal.DashboardStats(c.Request().Context(), token, domain.Timeframe(q.Timeframe))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, stats)
}

// Ask sends a question to the AI assistant.
//
// @Summary      Ask the assistant
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  askRequest  true  "Question"
// @Success      200
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/assistant [post]
func (h *PortalHandler) Ask(c echo.Context) error {
	sid, user, token, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	answer, err := h.portal.Ask(c.Request().Context(), sid, user, token, req.Query)
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, answer)
}
