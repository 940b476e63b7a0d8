package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func requestWithBearer(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/autopilot/toggle", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestBearerSessions_ValidToken(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	token := signToken(t, "test-secret", jwt.MapClaims{
		"email": "User@Example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	session, ok := sessions.Resolve(requestWithBearer(token))
	require.True(t, ok)
	require.Equal(t, "user@example.com", session.Email)
}

func TestBearerSessions_WrongSecret(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	token := signToken(t, "other-secret", jwt.MapClaims{"email": "user@example.com"})

	_, ok := sessions.Resolve(requestWithBearer(token))
	require.False(t, ok)
}

func TestBearerSessions_ExpiredToken(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	token := signToken(t, "test-secret", jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	_, ok := sessions.Resolve(requestWithBearer(token))
	require.False(t, ok)
}

func TestBearerSessions_MissingEmailClaim(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	token := signToken(t, "test-secret", jwt.MapClaims{"sub": "user-1"})

	_, ok := sessions.Resolve(requestWithBearer(token))
	require.False(t, ok)
}

func TestBearerSessions_NoHeader(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	_, ok := sessions.Resolve(requestWithBearer(""))
	require.False(t, ok)
}

func TestBearerSessions_EmptySecretResolvesNothing(t *testing.T) {
	sessions := NewBearerSessions("")
	token := signToken(t, "", jwt.MapClaims{"email": "user@example.com"})

	_, ok := sessions.Resolve(requestWithBearer(token))
	require.False(t, ok)
}

func TestBearerSessions_RejectsUnsignedToken(t *testing.T) {
	sessions := NewBearerSessions("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "user@example.com",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := sessions.Resolve(requestWithBearer(token))
	require.False(t, ok)
}
