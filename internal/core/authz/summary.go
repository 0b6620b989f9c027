package authz

import (
	"sort"

	"github.com/atreo/portal/internal/core/domain"
)

var modules = []Module{ModuleGeneral, ModuleManagement, ModuleTools, ModuleIntelligence, ModuleSystem}

// Modules lists every permission module in display order.
func Modules() []Module {
	return append([]Module(nil), modules...)
}

// PageSummary is the effective access on one page.
type PageSummary struct {
	Page  string `json:"page" yaml:"page"`
	Read  bool   `json:"read" yaml:"read"`
	Write bool   `json:"write" yaml:"write"`
}

// ModuleSummary is the effective access on one module and its pages.
type ModuleSummary struct {
	Module Module        `json:"module" yaml:"module"`
	Access bool          `json:"access" yaml:"access"`
	Pages  []PageSummary `json:"pages" yaml:"pages"`
}

// Summary is the full effective permission picture of a user.
type Summary struct {
	Role                 domain.Role     `json:"role" yaml:"role"`
	Kind                 string          `json:"permissions_kind" yaml:"permissions_kind"`
	IsAdmin              bool            `json:"is_admin" yaml:"is_admin"`
	IsSuperAdmin         bool            `json:"is_super_admin" yaml:"is_super_admin"`
	CanAccessSettings    bool            `json:"can_access_settings" yaml:"can_access_settings"`
	CanAssignPermissions bool            `json:"can_assign_permissions" yaml:"can_assign_permissions"`
	Modules              []ModuleSummary `json:"modules" yaml:"modules"`
}

// Summarize evaluates every known module and page for u. Pages are those of
// the legacy table plus any the user's structured grant names.
func Summarize(u *domain.User) Summary {
	s := Summary{
		Role:                 u.RoleOrEmpty(),
		IsAdmin:              u.IsAdmin(),
		IsSuperAdmin:         u.IsSuperAdmin(),
		CanAccessSettings:    CanAccessSettings(u),
		CanAssignPermissions: CanAssignPermissions(u),
	}
	if u != nil {
		s.Kind = u.Permissions.Kind().String()
	}

	for _, m := range modules {
		ms := ModuleSummary{Module: m, Access: HasModuleAccess(u, m)}
		for _, page := range pagesOf(u, m) {
			ms.Pages = append(ms.Pages, PageSummary{
				Page:  page,
				Read:  HasAccessType(u, m, page, Read),
				Write: HasAccessType(u, m, page, Write),
			})
		}
		s.Modules = append(s.Modules, ms)
	}
	return s
}

func pagesOf(u *domain.User, m Module) []string {
	seen := map[string]struct{}{}
	for _, p := range legacyModulePages[m] {
		seen[p] = struct{}{}
	}
	if u != nil {
		if grant, ok := u.Permissions.Module(string(m)); ok {
			for p := range grant.Pages {
				seen[p] = struct{}{}
			}
		}
	}
	pages := make([]string, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages
}
