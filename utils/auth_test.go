package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	prev := GetJWTSecret()
	SetJWTSecret(secret)
	t.Cleanup(func() { SetJWTSecret(prev) })
}

func TestGenerateAndParseToken(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateJWTToken("64b7f0c2a1b2c3d4e5f60718", "ada@example.com", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseJWTToken_Expired(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateJWTToken("u1", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseJWTToken_WrongSecret(t *testing.T) {
	withSecret(t, "one")
	token, err := GenerateJWTToken("u1", "", "", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("two")
	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTToken_SubjectFallback(t *testing.T) {
	withSecret(t, "test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "legacy-user",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	claims, err := ParseJWTToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", claims.UserID)
}

func TestParseJWTToken_NoSecret(t *testing.T) {
	withSecret(t, "")
	_, err := ParseJWTToken("anything")
	assert.Error(t, err)
}
