// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billowria/teampulse/internal/platform/sec"
)

/*
TestRole_Hierarchy verifies that the role comparison respects the linear hierarchy.
*/
func TestRole_Hierarchy(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleManager))
	assert.True(t, sec.RoleManager.AtLeast(sec.RoleMember))
	assert.False(t, sec.RoleMember.AtLeast(sec.RoleManager))

	// Unknown roles rank below everything
	assert.False(t, sec.UserRole("ghost").AtLeast(sec.RoleMember))
}

/*
TestRole_IsManagerial verifies approval visibility gating.
*/
func TestRole_IsManagerial(t *testing.T) {
	assert.True(t, sec.RoleAdmin.IsManagerial())
	assert.True(t, sec.RoleManager.IsManagerial())
	assert.False(t, sec.RoleMember.IsManagerial())
}

/*
TestParseRole verifies that unknown values fall back to member.
*/
func TestParseRole(t *testing.T) {
	cases := []struct {
		input    string
		expected sec.UserRole
	}{
		{"admin", sec.RoleAdmin},
		{"manager", sec.RoleManager},
		{"member", sec.RoleMember},
		{"", sec.RoleMember},
		{"superuser", sec.RoleMember},
	}

	for _, testCase := range cases {
		assert.Equal(t, testCase.expected, sec.ParseRole(testCase.input), "input=%q", testCase.input)
	}
}
