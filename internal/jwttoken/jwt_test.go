package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "resident-manager/pkg/domain-errors"
)

var jwtService = NewService("test-signing-key", time.Hour)

func Test_Generate(t *testing.T) {
	token, err := jwtService.Generate(42, "bob", 12)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.ResidentID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, 12, claims.Room)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := jwtService.Validate("invalid-token-string")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	expired := NewService("test-signing-key", -time.Hour)
	token, err := expired.Generate(42, "bob", 12)
	require.NoError(t, err)

	_, err = jwtService.Validate(token)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func Test_Validate_WrongKey(t *testing.T) {
	other := NewService("other-signing-key", time.Hour)
	token, err := other.Generate(42, "bob", 12)
	require.NoError(t, err)

	_, err = jwtService.Validate(token)
	require.Error(t, err)
}
