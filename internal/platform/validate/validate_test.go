// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package validate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Platform Crew", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_OneOf checks the enum membership rule used for theme modes
and approval decisions.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("decision", "approved", "approved", "rejected")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.OneOf("decision", "maybe", "approved", "rejected")
	assert.True(t, v2.HasErrors())
}

/*
TestValidator_Future checks the future-timestamp rule used for announcement expiry.
*/
func TestValidator_Future(t *testing.T) {
	v := &validate.Validator{}
	v.Future("expires_at", time.Now().Add(time.Hour))
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.Future("expires_at", time.Now().Add(-time.Hour))
	assert.True(t, v2.HasErrors())
}

/*
TestValidator_Chaining verifies that multiple failures accumulate into one error.
*/
func TestValidator_Chaining(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("title", "").
		MaxLen("message", "some message", 5).
		Err()

	require.NotNil(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 2)
}
