package api

import (
	"fmt"
	"net/http"
	"strings"

	tenantDomain "github.com/cerberoai/cerbero/internal/tenant/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the resolved identity of an authenticated request. Sessions are
// issued elsewhere; this layer only verifies and reads them.
type Session struct {
	Email string
}

// SessionResolver extracts a session from an incoming request.
type SessionResolver interface {
	Resolve(r *http.Request) (Session, bool)
}

// BearerSessions resolves sessions from HMAC-signed bearer tokens carrying an
// email claim.
type BearerSessions struct {
	secret []byte
}

// NewBearerSessions creates a resolver for the shared signing secret. An
// empty secret resolves nothing, so every request is unauthorized.
func NewBearerSessions(secret string) *BearerSessions {
	return &BearerSessions{secret: []byte(secret)}
}

// Resolve verifies the Authorization header and returns the session email.
func (b *BearerSessions) Resolve(r *http.Request) (Session, bool) {
	if len(b.secret) == 0 {
		return Session{}, false
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return Session{}, false
	}
	tokenString := strings.TrimSpace(header[len("bearer "):])
	if tokenString == "" {
		return Session{}, false
	}

	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
			}
			return b.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil || !token.Valid {
		return Session{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, false
	}

	email, _ := claims["email"].(string)
	email = tenantDomain.NormalizeEmail(email)
	if email == "" {
		return Session{}, false
	}

	return Session{Email: email}, true
}

var _ SessionResolver = (*BearerSessions)(nil)
