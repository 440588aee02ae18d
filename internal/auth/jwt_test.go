package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenManager(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)

	tm, err := NewTokenManager("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tm.ttl)
}

func TestTokenRoundtrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := tm.Generate("guard1", 42, "guard")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "guard1", claims.Username())
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "guard", claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	tm := &TokenManager{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := tm.Generate("guard1", 42, "guard")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	for _, bad := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		_, err := tm.Validate(bad)
		assert.Error(t, err, "token %q should be rejected", bad)
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer, err := NewTokenManager("key-one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("key-two", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate("guard1", 1, "guard")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}
