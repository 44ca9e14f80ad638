// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/platform/apperr"
)

func TestValidator_ChainCollectsAllErrors(t *testing.T) {
	v := &Validator{}
	err := v.
		Required("username", "").
		Email("email", "not-an-email").
		MinLen("name", "a", 2).
		Err()

	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Len(t, appErr.Details, 3)
}

func TestValidator_PassingChainReturnsNil(t *testing.T) {
	v := &Validator{}
	err := v.
		Required("username", "alice").
		Email("email", "alice@example.com").
		MaxLen("username", "alice", 150).
		Err()

	assert.NoError(t, err)
}

func TestValidator_Password(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		wantMsg  string
	}{
		{
			name:     "strong password passes",
			password: "correct-horse-battery",
			wantErr:  false,
		},
		{
			name:     "too short",
			password: "ab1cd2",
			wantErr:  true,
			wantMsg:  "Password must be at least 8 characters",
		},
		{
			name:     "entirely numeric",
			password: "4815162342",
			wantErr:  true,
			wantMsg:  "Password cannot be entirely numeric",
		},
		{
			name:     "common password",
			password: "Password1",
			wantErr:  true,
			wantMsg:  "Password is too common",
		},
		{
			name:     "short and numeric reports length first",
			password: "1234567",
			wantErr:  true,
			wantMsg:  "Password must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Validator{}
			err := v.Password("password", tt.password).Err()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			require.Len(t, appErr.Details, 1)
			assert.Equal(t, "password", appErr.Details[0].Field)
			assert.Equal(t, tt.wantMsg, appErr.Details[0].Message)
		})
	}
}

func TestValidator_Match(t *testing.T) {
	v := &Validator{}
	err := v.Match("password", "secret-one", "secret-two").Err()

	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "Password fields didn't match", appErr.Details[0].Message)

	v2 := &Validator{}
	assert.NoError(t, v2.Match("password", "same-secret", "same-secret").Err())
}

func TestValidator_UUID(t *testing.T) {
	v := &Validator{}
	assert.NoError(t, v.UUID("id", "019526a8-7a3c-7def-8123-456789abcdef").Err())

	v2 := &Validator{}
	assert.Error(t, v2.UUID("id", "not-a-uuid").Err())
}

func TestValidator_OneOf(t *testing.T) {
	v := &Validator{}
	assert.NoError(t, v.OneOf("status", "pending", "pending", "running").Err())

	v2 := &Validator{}
	assert.Error(t, v2.OneOf("status", "archived", "pending", "running").Err())
}

func TestValidator_Custom(t *testing.T) {
	v := &Validator{}
	err := v.Custom("password", true, "Password cannot equal the username").Err()

	require.Error(t, err)
	appErr := apperr.As(err)
	assert.Equal(t, "Password cannot equal the username", appErr.Details[0].Message)
}

func TestValidator_HasErrors(t *testing.T) {
	v := &Validator{}
	assert.False(t, v.HasErrors())

	v.Required("username", "")
	assert.True(t, v.HasErrors())
}
