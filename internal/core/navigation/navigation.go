// Package navigation maps (role, stored tab, requested tab) to the page the
// portal shows, and derives the sidebar a user sees.
//
// The sidebar is UX only. SelectPage repeats the sensitive checks on its own
// so that a tab reached by any other route still falls back to the dashboard.
package navigation

import (
	"github.com/atreo/portal/internal/core/authz"
	"github.com/atreo/portal/internal/core/domain"
)

// ResolveTab adopts candidate when it belongs to the role's tab set, and
// otherwise falls back to the default tab.
func ResolveTab(role domain.Role, candidate string) domain.Tab {
	t := domain.Tab(candidate)
	if domain.TabSetFor(role).Contains(t) {
		return t
	}
	return domain.DefaultTab
}

// GuardTab runs whenever the user or the active tab changes. A stored
// "admins" tab can outlive a privilege downgrade, so it is re-checked here.
func GuardTab(u *domain.User, t domain.Tab) domain.Tab {
	if t == domain.TabAdmins && !u.IsSuperAdmin() {
		return domain.DefaultTab
	}
	return t
}

const (
	componentAdminDashboard = "AdminDashboard"
	componentUserDashboard  = "UserDashboard"
)

var adminComponents = map[domain.Tab]string{
	domain.TabDashboard:     componentAdminDashboard,
	domain.TabPayments:      "Payments",
	domain.TabPayroll:       "Payments",
	domain.TabCustomers:     "Customers",
	domain.TabMessages:      "Messages",
	domain.TabOrganizations: "Organizations",
	domain.TabEmployees:     "Employees",
	domain.TabUsers:         "Users",
	domain.TabAdmins:        "Admins",
	domain.TabProducts:      "Tools",
	domain.TabTools:         "Tools",
	domain.TabInvoices:      "Invoices",
	domain.TabAssets:        "Assets",
	domain.TabCredentials:   "Credentials",
	domain.TabAnalytics:     "Analytics",
	domain.TabAIFeatures:    "AIFeatures",
	domain.TabAutomation:    "Automation",
	domain.TabSettings:      "Settings",
	domain.TabSecurity:      "Security",
	domain.TabLogs:          "Logs",
	domain.TabHelp:          "Help",
	domain.TabDomains:       "Domains",
	domain.TabEmails:        "Emails",
}

var userComponents = map[domain.Tab]string{
	domain.TabDashboard:  componentUserDashboard,
	domain.TabSubmission: "Submission",
	domain.TabTools:      "UserTools",
	domain.TabInvoices:   "UserInvoices",
	domain.TabProfile:    "Profile",
	domain.TabSettings:   "UserSettings",
}

// SelectPage picks the component to mount for tab t.
func SelectPage(u *domain.User, t domain.Tab) domain.Page {
	if !domain.AdminShell(u.RoleOrEmpty()) {
		if c, ok := userComponents[t]; ok {
			return domain.Page{Tab: t, Component: c}
		}
		return domain.Page{Tab: domain.DefaultTab, Component: componentUserDashboard, Fallback: t != domain.DefaultTab}
	}

	fallback := domain.Page{Tab: domain.DefaultTab, Component: componentAdminDashboard, Fallback: true}

	switch t {
	case domain.TabAdmins:
		if !u.IsSuperAdmin() {
			return fallback
		}
	case domain.TabSettings:
		if !u.IsSuperAdmin() && !authz.CanAccessSettings(u) {
			return fallback
		}
	case domain.TabSecurity, domain.TabLogs:
		if !u.IsAdmin() {
			return fallback
		}
	}

	c, ok := adminComponents[t]
	if !ok {
		return fallback
	}
	return domain.Page{Tab: t, Component: c}
}
