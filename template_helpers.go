package portal

import "strings"

// TemplateHelpers returns the helper functions and data registered on the
// view engine.
//
// In templates:
//
//	{{ role_label(user_role) }}
//	{{ role_badge_class(user_role) }}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"role_label":       roleLabel,
		"role_badge_class": roleBadgeClass,

		"roles": map[string]string{
			"admin": string(RoleAdmin),
			"user":  string(RoleUser),
			"guest": string(RoleGuest),
		},
	}
}

// roleLabel renders a role for display, e.g. "admin" as "Admin".
func roleLabel(role string) string {
	if role == "" {
		return ""
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// roleBadgeClass maps a role onto its badge css class.
func roleBadgeClass(role string) string {
	if _, ok := ParseRole(role); !ok {
		role = string(RoleGuest)
	}
	return "role-" + role
}
