package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/api/metrics"
	"github.com/atreo/portal/internal/core/authz"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

// resourceRule ties a backend resource to the page whose grants govern it.
type resourceRule struct {
	module         authz.Module
	page           string
	selfService    bool // any signed-in user, own data only
	superAdminOnly bool // restricted to super-admins regardless of grants
}

var resourceRules = map[string]resourceRule{
	"employees":     {module: authz.ModuleManagement, page: "employees"},
	"users":         {module: authz.ModuleManagement, page: "users"},
	"admins":        {module: authz.ModuleManagement, page: "admins", superAdminOnly: true},
	"organizations": {module: authz.ModuleManagement, page: "organizations"},
	"payments":      {module: authz.ModuleGeneral, page: "payments"},
	"tools":         {module: authz.ModuleTools, page: "products"},
	"credentials":   {module: authz.ModuleTools, page: "products"},
	"invoices":      {module: authz.ModuleTools, page: "invoices"},
	"assets":        {module: authz.ModuleTools, page: "assets"},
	"asset-folders": {module: authz.ModuleTools, page: "assets"},
	"domains":       {module: authz.ModuleTools, page: "domains"},
	"submissions":   {selfService: true},
	"profile":       {selfService: true},
}

type portalService struct {
	backend ports.Backend
	audit   ports.AuditRecorder
	log     zerolog.Logger
}

// NewPortalService returns a PortalService relaying to backend.
func NewPortalService(backend ports.Backend, audit ports.AuditRecorder, log zerolog.Logger) ports.PortalService {
	return &portalService{backend: backend, audit: audit, log: log}
}

// Forward checks the caller's grants for the resource and relays the call.
// The backend still enforces its own rules; this is the portal's half.
func (s *portalService) Forward(ctx context.Context, sessionID string, user *domain.User, token string, req ports.ForwardRequest) (*ports.ForwardResponse, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	rule, ok := resourceRules[req.Resource]
	if !ok {
		return nil, fmt.Errorf("forward %s: %w", req.Resource, domain.ErrResourceNotFound)
	}

	access := accessForMethod(req.Method)
	if !rule.permits(user, access) {
		s.deny(sessionID, user, "resource", fmt.Sprintf("%s %s", req.Method, req.Resource))
		return nil, fmt.Errorf("forward %s: %w", req.Resource, domain.ErrForbidden)
	}
	metrics.AuthzDecisionsTotal.WithLabelValues("resource", "allow").Inc()

	resp, err := s.backend.Forward(ctx, token, req)
	if err != nil {
		return nil, fmt.Errorf("forward %s: %w", req.Resource, err)
	}
	return resp, nil
}

func (s *portalService) DashboardStats(ctx context.Context, token string, tf domain.Timeframe) (json.RawMessage, error) {
	if tf == "" {
		tf = domain.Timeframe1Month
	}
	if !tf.Valid() {
		return nil, fmt.Errorf("dashboard stats: %w: %q", domain.ErrInvalidTimeframe, tf)
	}
	stats, err := s.backend.DashboardStats(ctx, token, tf)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

// Ask relays an assistant query for users allowed to read the AI features page.
func (s *portalService) Ask(ctx context.Context, sessionID string, user *domain.User, token, query string) (json.RawMessage, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("ask: %w: empty query", domain.ErrValidation)
	}
	if !authz.CanRead(user, authz.ModuleIntelligence, "ai-features") {
		s.deny(sessionID, user, "assistant", "intelligence/ai-features")
		return nil, fmt.Errorf("ask: %w", domain.ErrForbidden)
	}
	metrics.AuthzDecisionsTotal.WithLabelValues("assistant", "allow").Inc()

	answer, err := s.backend.Ask(ctx, token, query)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return answer, nil
}

func (s *portalService) deny(sessionID string, user *domain.User, check, detail string) {
	metrics.AuthzDecisionsTotal.WithLabelValues(check, "deny").Inc()
	s.log.Warn().
		Str("session_id", sessionID).
		Str("user_id", user.ID).
		Str("check", check).
		Str("target", detail).
		Msg("access denied")
	s.audit.Record(domain.AuditEvent{
		SessionID: sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		Kind:      domain.AuditAccessDenied,
		Detail:    detail,
	})
}

// permits applies the resource rule. Admins may read any page they can see;
// writes always need an explicit write grant unless the user is a super-admin.
func (r resourceRule) permits(u *domain.User, a authz.Access) bool {
	switch {
	case r.selfService:
		return true
	case r.superAdminOnly:
		return u.IsSuperAdmin()
	case a == authz.Read && u.IsAdmin():
		return authz.HasPageAccess(u, r.module, r.page)
	default:
		return authz.HasAccessType(u, r.module, r.page, a)
	}
}

func accessForMethod(method string) authz.Access {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return authz.Read
	default:
		return authz.Write
	}
}
