package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atreo/portal/internal/core/domain"
	"github.com/atreo/portal/internal/core/ports"
)

func newPortalSvc(backend *stubBackend, audit *recordingAudit) ports.PortalService {
	return NewPortalService(backend, audit, zerolog.Nop())
}

func paymentsReader() *domain.User {
	return &domain.User{
		ID:   "acc1",
		Role: domain.RoleAccountant,
		Permissions: domain.StructuredPermissions(map[string]domain.ModuleGrant{
			"general": {Pages: map[string]domain.AccessFlags{"payments": {Read: true}}},
		}),
	}
}

func TestPortalService_Forward_ReadAllowed(t *testing.T) {
	backend := &stubBackend{}
	svc := newPortalSvc(backend, &recordingAudit{})

	resp, err := svc.Forward(context.Background(), sid, paymentsReader(), "t", ports.ForwardRequest{Method: "GET", Resource: "payments"})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if resp.Status != 200 {
		t.Fatalf("unexpected status %d", resp.Status)
	}
	if len(backend.forwarded) != 1 {
		t.Fatalf("expected one forwarded call, got %d", len(backend.forwarded))
	}
}

func TestPortalService_Forward_WriteDenied(t *testing.T) {
	backend := &stubBackend{}
	audit := &recordingAudit{}
	svc := newPortalSvc(backend, audit)

	_, err := svc.Forward(context.Background(), sid, paymentsReader(), "t", ports.ForwardRequest{Method: "POST", Resource: "payments"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(backend.forwarded) != 0 {
		t.Fatalf("denied call must not reach the backend")
	}
	if kinds := audit.kinds(); len(kinds) != 1 || kinds[0] != domain.AuditAccessDenied {
		t.Fatalf("expected access_denied audit, got %v", kinds)
	}
}

func TestPortalService_Forward_Rules(t *testing.T) {
	plain := &domain.User{ID: "a1", Role: domain.RoleAdmin, AdminRole: domain.AdminRoleAdmin}
	super := &domain.User{ID: "s1", Role: domain.RoleAdmin, AdminRole: domain.AdminRoleSuper}
	legacy := &domain.User{ID: "e1", Role: domain.RoleEmployee, Permissions: domain.LegacyPermissions("employees")}
	member := &domain.User{ID: "u1", Role: domain.RoleUser}

	tests := []struct {
		name     string
		user     *domain.User
		method   string
		resource string
		wantErr  error
	}{
		{"plain admin reads employees", plain, "GET", "employees", nil},
		{"plain admin cannot write without grant", plain, "DELETE", "employees", domain.ErrForbidden},
		{"plain admin cannot list admins", plain, "GET", "admins", domain.ErrForbidden},
		{"super admin manages admins", super, "PUT", "admins", nil},
		{"legacy reads its page", legacy, "GET", "employees", nil},
		{"legacy never writes", legacy, "PATCH", "employees", domain.ErrForbidden},
		{"legacy outside its pages", legacy, "GET", "payments", domain.ErrForbidden},
		{"user submits", member, "POST", "submissions", nil},
		{"user edits profile", member, "PUT", "profile", nil},
		{"user cannot list users", member, "GET", "users", domain.ErrForbidden},
		{"unknown resource", super, "GET", "secrets", domain.ErrResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newPortalSvc(&stubBackend{}, &recordingAudit{})
			_, err := svc.Forward(context.Background(), sid, tt.user, "t", ports.ForwardRequest{Method: tt.method, Resource: tt.resource})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPortalService_Forward_InvoicesUsesInvoicesPage(t *testing.T) {
	accountant := func(p domain.Permissions) *domain.User {
		return &domain.User{ID: "acc1", Role: domain.RoleAccountant, Permissions: p}
	}
	invoiceWriter := domain.StructuredPermissions(map[string]domain.ModuleGrant{
		"tools": {Pages: map[string]domain.AccessFlags{"invoices": {Read: true, Write: true}}},
	})
	assetWriter := domain.StructuredPermissions(map[string]domain.ModuleGrant{
		"tools": {Pages: map[string]domain.AccessFlags{"assets": {Read: true, Write: true}}},
	})

	tests := []struct {
		name    string
		user    *domain.User
		method  string
		allowed bool
	}{
		{"legacy invoices grant reads invoices", accountant(domain.LegacyPermissions("invoices")), "GET", true},
		{"legacy assets grant cannot read invoices", accountant(domain.LegacyPermissions("assets")), "GET", false},
		{"invoices writer creates invoices", accountant(invoiceWriter), "POST", true},
		{"assets writer cannot create invoices", accountant(assetWriter), "POST", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{}
			svc := newPortalSvc(backend, &recordingAudit{})

			_, err := svc.Forward(context.Background(), sid, tt.user, "t", ports.ForwardRequest{Method: tt.method, Resource: "invoices"})
			if tt.allowed && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			if got := len(backend.forwarded) == 1; got != tt.allowed {
				t.Fatalf("forwarded=%v, want %v", got, tt.allowed)
			}
		})
	}
}

func TestPortalService_Forward_RelaysBackendError(t *testing.T) {
	backend := &stubBackend{
		forwardFn: func(context.Context, string, ports.ForwardRequest) (*ports.ForwardResponse, error) {
			return nil, &domain.APIError{Status: 404, Message: "Payment not found"}
		},
	}
	_, err := newPortalSvc(backend, &recordingAudit{}).Forward(context.Background(), sid, paymentsReader(), "t",
		ports.ForwardRequest{Method: "GET", Resource: "payments", Path: "p-9"})
	apiErr, ok := domain.AsAPIError(err)
	if !ok || apiErr.Status != 404 {
		t.Fatalf("expected backend 404 to pass through, got %v", err)
	}
}

func TestPortalService_DashboardStats(t *testing.T) {
	svc := newPortalSvc(&stubBackend{}, &recordingAudit{})

	raw, err := svc.DashboardStats(context.Background(), "t", domain.Timeframe6Months)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if string(raw) != `{"timeframe":"6months"}` {
		t.Fatalf("unexpected stats %s", raw)
	}

	if raw, _ := svc.DashboardStats(context.Background(), "t", ""); string(raw) != `{"timeframe":"1month"}` {
		t.Fatalf("empty timeframe must default to 1month, got %s", raw)
	}

	if _, err := svc.DashboardStats(context.Background(), "t", "2weeks"); !errors.Is(err, domain.ErrInvalidTimeframe) {
		t.Fatalf("expected ErrInvalidTimeframe, got %v", err)
	}
}

func TestPortalService_Ask(t *testing.T) {
	backend := &stubBackend{}
	svc := newPortalSvc(backend, &recordingAudit{})

	granted := &domain.User{
		ID:   "e2",
		Role: domain.RoleEmployee,
		Permissions: domain.StructuredPermissions(map[string]domain.ModuleGrant{
			"intelligence": {Pages: map[string]domain.AccessFlags{"ai-features": {Write: true}}},
		}),
	}
	if _, err := svc.Ask(context.Background(), sid, granted, "t", "  revenue this month?  "); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(backend.asked) != 1 || backend.asked[0] != "revenue this month?" {
		t.Fatalf("unexpected relayed queries %v", backend.asked)
	}

	if _, err := svc.Ask(context.Background(), sid, paymentsReader(), "t", "hello"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Ask(context.Background(), sid, granted, "t", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
