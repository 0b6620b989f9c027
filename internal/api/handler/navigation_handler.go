package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atreo/portal/internal/core/authz"
	"github.com/atreo/portal/internal/core/navigation"
	"github.com/atreo/portal/internal/core/ports"
)

type changeTabRequest struct {
	Tab string `json:"tab" validate:"required,max=64"`
}

type permissionCheckResponse struct {
	Module  authz.Module `json:"module"`
	Page    string       `json:"page"`
	Access  authz.Access `json:"access"`
	Allowed bool         `json:"allowed"`
}

// NavigationHandler serves the shell: active tab, page and sidebar.
type NavigationHandler struct {
	navigation ports.NavigationService
}

func NewNavigationHandler(navigation ports.NavigationService) *NavigationHandler {
	return &NavigationHandler{navigation: navigation}
}

// Get returns the active tab, the page to mount and the sidebar.
//
// @Summary      Navigation state
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.NavigationView
// @Failure      401  {object}  errorResponse
// @Router       /v1/navigation [get]
func (h *NavigationHandler) Get(c echo.Context) error {
	sid, user, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, err := h.navigation.View(c.Request().Context(), sid, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// ChangeTab selects a tab. Tabs outside the user's set, or forbidden to
// them, resolve to the dashboard instead of failing.
//
// @Summary      Change active tab
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changeTabRequest  true  "Requested tab"
// @Success      200   {object}  ports.NavigationView
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/navigation/tab [put]
func (h *NavigationHandler) ChangeTab(c echo.Context) error {
	sid, user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req changeTabRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	tab, err := h.navigation.Change(c.Request().Context(), sid, user, req.Tab)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.NavigationView{
		ActiveTab: tab,
		Page:      navigation.SelectPage(user, tab),
		Sidebar:   navigation.Sidebar(user),
	})
}

// Page returns the page selection for ?tab= without changing the active
// tab, or for the active tab when the parameter is absent.
//
// @Summary      Page selection
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Param        tab  query     string  false  "Tab id"
// @Success      200  {object}  domain.Page
// @Failure      401  {object}  errorResponse
// @Router       /v1/navigation/page [get]
func (h *NavigationHandler) Page(c echo.Context) error {
	sid, user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	if tab := c.QueryParam("tab"); tab != "" {
		resolved := navigation.GuardTab(user, navigation.ResolveTab(user.Role, tab))
		return c.JSON(http.StatusOK, navigation.SelectPage(user, resolved))
	}

	view, err := h.navigation.View(c.Request().Context(), sid, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.Page)
}

// Permissions answers a single ?module=&page=&access= check, or returns the
// caller's full effective permissions when no module is given.
//
// @Summary      Effective permissions
// @Tags         navigation
// @Produce      json
// @Security     BearerAuth
// @Param        module  query     string  false  "Module"
// @Param        page    query     string  false  "Page id"
// @Param        access  query     string  false  "read or write"
// @Success      200     {object}  authz.Summary
// @Failure      401     {object}  errorResponse
// @Router       /v1/permissions [get]
func (h *NavigationHandler) Permissions(c echo.Context) error {
	_, user, _, err := ctxSession(c)
	if err != nil {
		return err
	}

	module := c.QueryParam("module")
	if module == "" {
		return c.JSON(http.StatusOK, authz.Summarize(user))
	}

	m := authz.Module(module)
	page := c.QueryParam("page")
	resp := permissionCheckResponse{Module: m, Page: page}
	if page == "" {
		resp.Allowed = authz.HasModuleAccess(user, m)
		return c.JSON(http.StatusOK, resp)
	}

	resp.Access = authz.ParseAccess(c.QueryParam("access"))
	resp.Allowed = authz.HasAccessType(user, m, page, resp.Access)
	return c.JSON(http.StatusOK, resp)
}
