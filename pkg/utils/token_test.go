package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("s3cret", "admin@example.org", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.org", claims.Subject)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("s3cret", "a", RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("s3cret", "a", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("s3cret", expired)
	assert.Error(t, err)

	_, err = GenerateToken("", "a", RoleAdmin, time.Hour)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong horse", hash))

	_, err = HashPassword("short")
	assert.Error(t, err)
}
