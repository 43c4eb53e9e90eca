package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", 30*24*time.Hour)
	loginAt := time.Now().Add(-time.Hour).Truncate(time.Second)

	token, err := issuer.Issue(42, "ploy", "sess-1", loginAt)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.True(t, claims.IssuedInstant().Equal(loginAt))
}

func TestIssuer_ParseFailuresWrapErrNoSession(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	foreign, err := other.Issue(1, "a", "s", time.Now())
	require.NoError(t, err)
	expired, err := issuer.Issue(1, "a", "s", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":      "",
		"garbage":    "not.a.jwt",
		"bad secret": foreign,
		"expired":    expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoSession))
		})
	}
}

func TestClaims_IssuedInstantPrefersLaterValue(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)

	c := &Claims{LoginTime: base.Unix()}
	c.IssuedAt = jwt.NewNumericDate(base.Add(time.Hour))
	assert.True(t, c.IssuedInstant().Equal(base.Add(time.Hour)))

	c = &Claims{LoginTime: base.Add(2 * time.Hour).Unix()}
	c.IssuedAt = jwt.NewNumericDate(base)
	assert.True(t, c.IssuedInstant().Equal(base.Add(2*time.Hour)))

	c = &Claims{}
	assert.True(t, c.IssuedInstant().IsZero())
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("temple123"))
	assert.Error(t, ValidatePasswordStrength("short1"))
	assert.Error(t, ValidatePasswordStrength("onlyletters"))
	assert.Error(t, ValidatePasswordStrength("12345678"))
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("temple123", 4)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("temple123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("temple123", ""))
}
