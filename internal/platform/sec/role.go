// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can approve leave requests, review timesheets, and post announcements
	RoleManager UserRole = "manager"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// IsManagerial reports whether the role carries approval visibility
// (pending leave requests and timesheet submissions).
func (r UserRole) IsManagerial() bool {
	return r.AtLeast(RoleManager)
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}

// ParseRole maps an arbitrary string to a known [UserRole].
//
// Unknown or empty values default to [RoleMember]: role resolution must
// never block, so absent data is treated as the baseline role.
func ParseRole(s string) UserRole {
	switch UserRole(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleMember
	}
}
