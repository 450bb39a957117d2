package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password1", hash)

	assert.True(t, CheckPassword("secret-password1", hash))
	assert.False(t, CheckPassword("wrong-password1", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestLinkTokenService_RoundTrip(t *testing.T) {
	links := NewLinkTokenService("secret", time.Hour)

	token, err := links.GenerateConfirmationToken("user@example.com")
	require.NoError(t, err)

	email, err := links.ValidateConfirmationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestLinkTokenService_Failures(t *testing.T) {
	links := NewLinkTokenService("secret", time.Hour)
	other := NewLinkTokenService("different-secret", time.Hour)
	expired := NewLinkTokenService("secret", -time.Hour)

	_, err := links.ValidateConfirmationToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidLinkToken)

	token, err := other.GenerateConfirmationToken("user@example.com")
	require.NoError(t, err)
	_, err = links.ValidateConfirmationToken(token)
	assert.ErrorIs(t, err, ErrInvalidLinkToken)

	stale, err := expired.GenerateConfirmationToken("user@example.com")
	require.NoError(t, err)
	_, err = links.ValidateConfirmationToken(stale)
	assert.ErrorIs(t, err, ErrInvalidLinkToken)
}
