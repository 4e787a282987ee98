package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer can read session status, messages and saved profiles.
	RoleViewer Role = "viewer"

	// RoleOperator can also connect, publish, subscribe and press buttons.
	RoleOperator Role = "operator"

	// RoleAdmin can also replace or delete saved profiles.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role, least privileged first.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User is an authenticated API account.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidRole        = errors.New("invalid role")
)
