package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/api/metrics"
	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/navigation"
	"github.com/atreo/portal/internal/core/ports"
)

type navigationService struct {
	tabs  ports.TabStore
	audit ports.AuditRecorder
	log   zerolog.Logger
}

// NewNavigationService returns a NavigationService backed by tabs.
func NewNavigationService(tabs ports.TabStore, audit ports.AuditRecorder, log zerolog.Logger) ports.NavigationService {
	return &navigationService{tabs: tabs, audit: audit, log: log}
}

// Restore reads the stored tab for the user's role and resolves it.
func (s *navigationService) Restore(ctx context.Context, sessionID string, user *domain.User) (domain.Tab, error) {
	if user == nil {
		return domain.DefaultTab, domain.ErrUnauthenticated
	}
	stored, err := s.tabs.Get(ctx, sessionID, user.Role)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("read active tab failed, using default")
		stored = ""
	}
	return s.settle(ctx, sessionID, user, stored, stored), nil
}

// Change applies a tab selection. Unknown or forbidden tabs resolve like a
// stale stored value would.
func (s *navigationService) Change(ctx context.Context, sessionID string, user *domain.User, requested string) (domain.Tab, error) {
	if user == nil {
		return domain.DefaultTab, domain.ErrUnauthenticated
	}
	stored, err := s.tabs.Get(ctx, sessionID, user.Role)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("read active tab failed")
		stored = ""
	}
	return s.settle(ctx, sessionID, user, stored, requested), nil
}

func (s *navigationService) View(ctx context.Context, sessionID string, user *domain.User) (*ports.NavigationView, error) {
	tab, err := s.Restore(ctx, sessionID, user)
	if err != nil {
		return nil, fmt.Errorf("navigation view: %w", err)
	}
	return &ports.NavigationView{
		ActiveTab: tab,
		Page:      navigation.SelectPage(user, tab),
		Sidebar:   navigation.Sidebar(user),
	}, nil
}

// settle resolves candidate for user, records how it was resolved and writes
// the result back when it differs from stored.
func (s *navigationService) settle(ctx context.Context, sessionID string, user *domain.User, stored, candidate string) domain.Tab {
	resolved := navigation.ResolveTab(user.Role, candidate)
	guarded := navigation.GuardTab(user, resolved)

	outcome := "adopted"
	switch {
	case guarded != resolved:
		outcome = "downgraded"
	case string(resolved) != candidate && candidate != "":
		outcome = "coerced"
	}
	metrics.TabResolutionsTotal.WithLabelValues(shellName(user.Role), outcome).Inc()

	if outcome != "adopted" {
		s.log.Info().
			Str("session_id", sessionID).
			Str("role", string(user.Role)).
			Str("requested", candidate).
			Str("resolved", string(guarded)).
			Msg("active tab coerced")
		s.audit.Record(domain.AuditEvent{
			SessionID: sessionID,
			UserID:    user.ID,
			Email:     user.Email,
			Kind:      domain.AuditTabCoerced,
			Detail:    fmt.Sprintf("%s -> %s (%s)", candidate, guarded, outcome),
		})
	}

	if string(guarded) != stored {
		if err := s.tabs.Set(ctx, sessionID, user.Role, guarded); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("persist active tab failed")
		}
	}
	return guarded
}

func shellName(role domain.Role) string {
	if domain.AdminShell(role) {
		return "admin"
	}
	return "user"
}
