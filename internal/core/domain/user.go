package domain

// Role is the coarse role the backend assigns to a principal.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleEmployee   Role = "employee"
	RoleAccountant Role = "accountant"
)

// Valid reports whether r is one of the roles the backend issues.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleEmployee, RoleAccountant:
		return true
	}
	return false
}

// AdminRole refines RoleAdmin.
type AdminRole string

const (
	AdminRoleSuper AdminRole = "super-admin"
	AdminRoleAdmin AdminRole = "admin"
)

// User models an authenticated principal as returned by the backend at login,
// signup and session restore. The portal never mutates a User in place; it is
// replaced wholesale.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	AdminRole   AdminRole   `json:"adminRole,omitempty"`
	Permissions Permissions `json:"permissions"`
}

// IsAdmin reports whether u holds the admin role, super or not.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsSuperAdmin reports whether u is an admin with the super-admin refinement.
func (u *User) IsSuperAdmin() bool {
	return u.IsAdmin() && u.AdminRole == AdminRoleSuper
}

// RoleOrEmpty returns the user's role, or "" for a nil user.
func (u *User) RoleOrEmpty() Role {
	if u == nil {
		return ""
	}
	return u.Role
}
