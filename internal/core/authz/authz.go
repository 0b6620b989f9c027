// Package authz answers "may this user see module M, page P, with access
// read|write". Checks cascade: module access gates page access, page access
// gates the access type, so a page is never reachable inside a blocked module
// and write always implies read.
//
// Every function is total: a nil user, or a user without permissions, is
// simply denied.
package authz

import "github.com/atreo/portal/internal/core/domain"

// Module is a top-level permission group.
type Module string

const (
	ModuleGeneral      Module = "general"
	ModuleManagement   Module = "management"
	ModuleTools        Module = "tools"
	ModuleIntelligence Module = "intelligence"
	ModuleSystem       Module = "system"
)

// Access is the kind of access requested on a page.
type Access string

const (
	Read  Access = "read"
	Write Access = "write"
)

// ParseAccess maps anything other than "write" to Read.
func ParseAccess(s string) Access {
	if Access(s) == Write {
		return Write
	}
	return Read
}

// legacyModulePages is the fixed module → page-ID table used to interpret the
// legacy flat permission list.
var legacyModulePages = map[Module][]string{
	ModuleGeneral:      {"dashboard", "payments"},
	ModuleManagement:   {"organizations", "employees", "users", "admins"},
	ModuleTools:        {"products", "invoices", "assets"},
	ModuleIntelligence: {"ai-features", "automation"},
	ModuleSystem:       {"settings", "logs", "help"},
}

// LegacyPages returns the page IDs a module covers in the legacy table.
func LegacyPages(m Module) []string {
	return append([]string(nil), legacyModulePages[m]...)
}

// HasModuleAccess reports whether u may see anything in module m.
func HasModuleAccess(u *domain.User, m Module) bool {
	if u == nil {
		return false
	}
	// any admin, super or not
	if u.IsAdmin() {
		return true
	}

	switch u.Permissions.Kind() {
	case domain.PermissionsLegacy:
		for _, id := range legacyModulePages[m] {
			if u.Permissions.HasID(id) {
				return true
			}
		}
		return false
	case domain.PermissionsStructured:
		_, ok := u.Permissions.Module(string(m))
		return ok
	default:
		return false
	}
}

// HasPageAccess reports whether u may open page inside module m.
func HasPageAccess(u *domain.User, m Module, page string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	if !HasModuleAccess(u, m) {
		return false
	}

	switch u.Permissions.Kind() {
	case domain.PermissionsLegacy:
		return u.Permissions.HasID(page)
	case domain.PermissionsStructured:
		_, ok := u.Permissions.Page(string(m), page)
		return ok
	default:
		return false
	}
}

// HasAccessType reports whether u holds access a on (m, page).
//
// Plain admins pass the module and page layers but still need an explicit
// grant here; only super-admins skip it.
func HasAccessType(u *domain.User, m Module, page string, a Access) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	if !HasPageAccess(u, m, page) {
		return false
	}

	switch u.Permissions.Kind() {
	case domain.PermissionsLegacy:
		// legacy grants are read-only
		return a != Write
	case domain.PermissionsStructured:
		flags, ok := u.Permissions.Page(string(m), page)
		if !ok {
			return false
		}
		if a == Write {
			return flags.Write
		}
		return flags.Read || flags.Write
	default:
		return false
	}
}

// CanRead is HasAccessType with Read.
func CanRead(u *domain.User, m Module, page string) bool {
	return HasAccessType(u, m, page, Read)
}

// CanAccessSettings gates the system settings page.
func CanAccessSettings(u *domain.User) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() || u.Role == domain.RoleAccountant {
		return true
	}
	return HasAccessType(u, ModuleSystem, "settings", Read)
}

// CanAssignPermissions is stricter than the admin bypass used elsewhere: only
// super-admins may edit other principals' grants.
func CanAssignPermissions(u *domain.User) bool {
	return u.IsSuperAdmin()
}
