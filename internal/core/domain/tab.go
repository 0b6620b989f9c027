package domain

// Tab identifies a page inside the authenticated portal.
type Tab string

// DefaultTab is where every role lands when nothing valid is stored.
const DefaultTab Tab = "dashboard"

const (
	TabDashboard     Tab = "dashboard"
	TabPayments      Tab = "payments"
	TabCustomers     Tab = "customers"
	TabMessages      Tab = "messages"
	TabOrganizations Tab = "organizations"
	TabEmployees     Tab = "employees"
	TabUsers         Tab = "users"
	TabAdmins        Tab = "admins"
	TabProducts      Tab = "products"
	TabInvoices      Tab = "invoices"
	TabAssets        Tab = "assets"
	TabCredentials   Tab = "credentials"
	TabAnalytics     Tab = "analytics"
	TabAIFeatures    Tab = "ai-features"
	TabAutomation    Tab = "automation"
	TabSettings      Tab = "settings"
	TabSecurity      Tab = "security"
	TabLogs          Tab = "logs"
	TabHelp          Tab = "help"
	TabPayroll       Tab = "payroll"
	TabTools         Tab = "tools"
	TabDomains       Tab = "domains"
	TabEmails        Tab = "emails"

	TabSubmission Tab = "submission"
	TabProfile    Tab = "profile"
)

// TabSet is a finite enumeration of tabs one role may display.
type TabSet struct {
	name  string
	order []Tab
	index map[Tab]struct{}
}

func newTabSet(name string, tabs ...Tab) TabSet {
	s := TabSet{name: name, order: tabs, index: make(map[Tab]struct{}, len(tabs))}
	for _, t := range tabs {
		s.index[t] = struct{}{}
	}
	return s
}

// Name returns "admin" or "user".
func (s TabSet) Name() string { return s.name }

// Contains reports membership.
func (s TabSet) Contains(t Tab) bool {
	_, ok := s.index[t]
	return ok
}

// Tabs returns the members in declaration order.
func (s TabSet) Tabs() []Tab {
	return append([]Tab(nil), s.order...)
}

var (
	// AdminTabs and UserTabs are disjoint in meaning even where IDs coincide:
	// "tools" in the admin set is the credentials inventory, in the user set it
	// is the employee's own tool list.
	AdminTabs = newTabSet("admin",
		TabDashboard, TabPayments, TabCustomers, TabMessages, TabOrganizations,
		TabEmployees, TabUsers, TabAdmins, TabProducts, TabInvoices, TabAssets,
		TabCredentials, TabAnalytics, TabAIFeatures, TabAutomation, TabSettings,
		TabSecurity, TabLogs, TabHelp, TabPayroll, TabTools, TabDomains, TabEmails,
	)
	UserTabs = newTabSet("user",
		TabDashboard, TabSubmission, TabTools, TabInvoices, TabProfile, TabSettings,
	)
)

// AdminShell reports whether role navigates the admin tab set. Accountants do.
func AdminShell(role Role) bool {
	return role == RoleAdmin || role == RoleAccountant
}

// TabSetFor returns the tab enumeration a role navigates in.
func TabSetFor(role Role) TabSet {
	if AdminShell(role) {
		return AdminTabs
	}
	return UserTabs
}

// Page is the outcome of page selection: which UI component to mount for a tab.
type Page struct {
	Tab       Tab    `json:"tab"`
	Component string `json:"component"`
	// Fallback is true when a just-in-time check redirected to the dashboard.
	Fallback bool `json:"fallback"`
}
