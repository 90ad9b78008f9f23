package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndDecode(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)

	token, err := tokens.Issue(42)
	require.NoError(t, err)

	claims, err := tokens.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)

	id, err := tokens.Authenticate(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestDecodeRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)

	_, err := tokens.Decode("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Decode("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokens("other", time.Minute).Issue(1)
	require.NoError(t, err)
	_, err = tokens.Decode(other)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.Issue(7)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeRequiresSubject(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	now := time.Now()
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}})
	token, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter22", hashed)
	assert.True(t, CheckPassword(hashed, "hunter22"))
	assert.False(t, CheckPassword(hashed, "hunter23"))
}
