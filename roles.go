package portal

// Role is the closed set of account roles. It is a defined type, not a
// string alias, so a raw request value can never reach session state
// without passing through ParseRole.
type Role string

const (
	// RoleAdmin can view and edit everything the portal exposes
	RoleAdmin Role = "admin"
	// RoleUser is a regular persisted account
	RoleUser Role = "user"
	// RoleGuest is an ephemeral, never-persisted account
	RoleGuest Role = "guest"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// CanEditProfile reports whether the role may reach the profile editor.
// Guests hold a session but own no record to edit.
func (r Role) CanEditProfile() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{RoleAdmin, RoleUser, RoleGuest}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
