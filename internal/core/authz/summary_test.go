package authz

import (
	"testing"

	"github.com/atreo/portal/internal/core/domain"
)

func TestSummarize_StructuredUser(t *testing.T) {
	u := &domain.User{
		Role: domain.RoleEmployee,
		Permissions: domain.StructuredPermissions(map[string]domain.ModuleGrant{
			"tools": {Pages: map[string]domain.AccessFlags{"domains": {Write: true}}},
		}),
	}
	s := Summarize(u)

	if s.Kind != "structured" || s.IsAdmin {
		t.Fatalf("unexpected header: %+v", s)
	}
	if len(s.Modules) != len(Modules()) {
		t.Fatalf("expected %d modules, got %d", len(Modules()), len(s.Modules))
	}

	var tools ModuleSummary
	for _, m := range s.Modules {
		if m.Module == ModuleTools {
			tools = m
		}
		if m.Module == ModuleGeneral && m.Access {
			t.Fatalf("general must be blocked")
		}
	}
	if !tools.Access {
		t.Fatalf("tools must be accessible")
	}
	found := false
	for _, p := range tools.Pages {
		if p.Page == "domains" {
			found = true
			if !p.Read || !p.Write {
				t.Fatalf("write grant must imply read: %+v", p)
			}
		}
		if p.Page == "products" && (p.Read || p.Write) {
			t.Fatalf("products is not granted: %+v", p)
		}
	}
	if !found {
		t.Fatalf("structured-only page missing from summary")
	}
}

func TestSummarize_NilUser(t *testing.T) {
	s := Summarize(nil)
	for _, m := range s.Modules {
		if m.Access {
			t.Fatalf("nil user must have no access: %+v", m)
		}
	}
}
