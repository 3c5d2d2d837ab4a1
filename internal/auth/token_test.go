package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := IssueAccessToken("secret", "u1", time.Minute)
	require.NoError(t, err)

	sub, err := ParseSubject("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := IssueAccessToken("secret", "u1", time.Minute)
	require.NoError(t, err)

	_, err = ParseSubject("other", tok)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tok, err := IssueAccessToken("secret", "u1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSubject("secret", tok)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseSubject("secret", "not.a.token")
	assert.Error(t, err)
}
