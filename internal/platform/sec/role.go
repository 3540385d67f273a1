// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, may call administrative functions
	RoleAdmin UserRole = "admin"

	// Default role for signed-in users
	RoleAuthenticated UserRole = "authenticated"

	// Requests carrying only the public key
	RoleAnon UserRole = "anon"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleAuthenticated:
		return 10
	case RoleAnon:
		return 1
	default:
		return 0
	}
}
