package auth

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermSessionRead    Permission = "session:read"
	PermSessionOperate Permission = "session:operate"
	PermProfileRead    Permission = "profile:read"
	PermProfileManage  Permission = "profile:manage"
	PermAuditRead      Permission = "audit:read"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermSessionRead,
		PermProfileRead,
	},
	RoleOperator: {
		PermSessionRead,
		PermSessionOperate,
		PermProfileRead,
	},
	RoleAdmin: {
		PermSessionRead,
		PermSessionOperate,
		PermProfileRead,
		PermProfileManage,
		PermAuditRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to a role,
// or nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
