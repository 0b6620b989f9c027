package navigation

import (
	"github.com/atreo/portal/internal/core/authz"
	"github.com/atreo/portal/internal/core/domain"
)

// SidebarItem is one entry of the navigation sidebar.
type SidebarItem struct {
	Tab     domain.Tab   `json:"tab"`
	Label   string       `json:"label"`
	Section string       `json:"section"`
	Module  authz.Module `json:"module,omitempty"`
	Page    string       `json:"page,omitempty"`
}

type visibility func(u *domain.User, item SidebarItem) bool

type sidebarEntry struct {
	SidebarItem
	visible visibility
}

func pageVisible(u *domain.User, item SidebarItem) bool {
	return authz.HasPageAccess(u, item.Module, item.Page)
}

func superAdminOnly(u *domain.User, _ SidebarItem) bool { return u.IsSuperAdmin() }

func settingsVisible(u *domain.User, _ SidebarItem) bool { return authz.CanAccessSettings(u) }

func adminRoleOnly(u *domain.User, item SidebarItem) bool {
	return u.IsAdmin() && pageVisible(u, item)
}

func always(*domain.User, SidebarItem) bool { return true }

func entry(tab domain.Tab, label, section string, m authz.Module, page string, v visibility) sidebarEntry {
	return sidebarEntry{
		SidebarItem: SidebarItem{Tab: tab, Label: label, Section: section, Module: m, Page: page},
		visible:     v,
	}
}

// adminSidebar lists the admin shell in display order. Page is the permission
// page ID, which differs from the tab for aliased tabs (payroll, tools).
var adminSidebar = []sidebarEntry{
	entry(domain.TabDashboard, "Dashboard", "General", authz.ModuleGeneral, "dashboard", pageVisible),
	entry(domain.TabPayments, "Payments", "General", authz.ModuleGeneral, "payments", pageVisible),
	entry(domain.TabPayroll, "Payroll", "General", authz.ModuleGeneral, "payments", pageVisible),
	entry(domain.TabCustomers, "Customers", "General", authz.ModuleGeneral, "customers", pageVisible),
	entry(domain.TabMessages, "Messages", "General", authz.ModuleGeneral, "messages", pageVisible),

	entry(domain.TabOrganizations, "Organizations", "Management", authz.ModuleManagement, "organizations", pageVisible),
	entry(domain.TabEmployees, "Employees", "Management", authz.ModuleManagement, "employees", pageVisible),
	entry(domain.TabUsers, "Users", "Management", authz.ModuleManagement, "users", pageVisible),
	entry(domain.TabAdmins, "Admins", "Management", authz.ModuleManagement, "admins", superAdminOnly),

	entry(domain.TabTools, "Tools", "Tools", authz.ModuleTools, "products", pageVisible),
	entry(domain.TabCredentials, "Credentials", "Tools", authz.ModuleTools, "credentials", pageVisible),
	entry(domain.TabInvoices, "Invoices", "Tools", authz.ModuleTools, "invoices", pageVisible),
	entry(domain.TabAssets, "Assets", "Tools", authz.ModuleTools, "assets", pageVisible),
	entry(domain.TabDomains, "Domains", "Tools", authz.ModuleTools, "domains", pageVisible),
	entry(domain.TabEmails, "Emails", "Tools", authz.ModuleTools, "emails", pageVisible),

	entry(domain.TabAnalytics, "Analytics", "Intelligence", authz.ModuleIntelligence, "analytics", pageVisible),
	entry(domain.TabAIFeatures, "AI Features", "Intelligence", authz.ModuleIntelligence, "ai-features", pageVisible),
	entry(domain.TabAutomation, "Automation", "Intelligence", authz.ModuleIntelligence, "automation", pageVisible),

	entry(domain.TabSettings, "Settings", "System", authz.ModuleSystem, "settings", settingsVisible),
	entry(domain.TabSecurity, "Security", "System", authz.ModuleSystem, "security", adminRoleOnly),
	entry(domain.TabLogs, "Logs", "System", authz.ModuleSystem, "logs", adminRoleOnly),
	entry(domain.TabHelp, "Help", "System", authz.ModuleSystem, "help", pageVisible),
}

var userSidebar = []sidebarEntry{
	entry(domain.TabDashboard, "Dashboard", "Workspace", "", "", always),
	entry(domain.TabSubmission, "Submission", "Workspace", "", "", always),
	entry(domain.TabTools, "My Tools", "Workspace", "", "", always),
	entry(domain.TabInvoices, "My Invoices", "Workspace", "", "", always),
	entry(domain.TabProfile, "Profile", "Account", "", "", always),
	entry(domain.TabSettings, "Settings", "Account", "", "", always),
}

// Sidebar returns the items u may see, in display order. A nil user sees nothing.
func Sidebar(u *domain.User) []SidebarItem {
	if u == nil {
		return nil
	}

	entries := userSidebar
	if domain.AdminShell(u.Role) {
		entries = adminSidebar
	}

	items := make([]SidebarItem, 0, len(entries))
	for _, e := range entries {
		if e.visible(u, e.SidebarItem) {
			items = append(items, e.SidebarItem)
		}
	}
	return items
}
