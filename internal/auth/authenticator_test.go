package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return tokenString
}

func TestAuthenticator_ValidToken(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-a",
		"aud": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	authentication, err := authenticator.AuthenticateToken(tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-a", authentication.Subject)
}

func TestAuthenticator_MissingToken(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	_, err := authenticator.AuthenticateToken("")

	assert.Error(t, err)
}

func TestAuthenticator_WrongSecret(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	tokenString := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-a",
		"aud": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	_, err := authenticator.AuthenticateToken(tokenString)

	assert.Error(t, err)
}

func TestAuthenticator_WrongAudience(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-a",
		"aud": "somewhere-else",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	_, err := authenticator.AuthenticateToken(tokenString)

	assert.Error(t, err)
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-a",
		"aud": "gateway",
		"exp": time.Now().Add(-time.Hour).Unix(),
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
	})

	_, err := authenticator.AuthenticateToken(tokenString)

	assert.Error(t, err)
}

func TestAuthenticator_MissingSubject(t *testing.T) {
	authenticator := NewAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"aud": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	_, err := authenticator.AuthenticateToken(tokenString)

	assert.Error(t, err)
}
