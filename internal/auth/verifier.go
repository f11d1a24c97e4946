// Package auth verifies access tokens issued by the hosted auth service.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// clockSkew is how far exp and nbf may be off before a token is rejected.
const clockSkew = 2 * time.Minute

// Claims is what the rest of the service needs from a verified token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// tokenClaims mirrors the hosted auth service's access token payload.
type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 access tokens signed with the project's JWT secret.
type Verifier struct {
	secret   []byte
	audience string
	timeFunc func() time.Time
}

// NewVerifier returns a Verifier, or ErrNotConfigured when secret is empty.
func NewVerifier(secret, audience string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNotConfigured
	}
	return &Verifier{
		secret:   []byte(secret),
		audience: audience,
		timeFunc: time.Now,
	}, nil
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	if v == nil {
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(v.timeFunc),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.Debug("token validation failed: token expired")
			return nil, ErrExpiredToken
		}
		slog.Debug("token validation failed", "error", err)
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		slog.Debug("token validation failed: no email claim", "subject", claims.Subject)
		return nil, ErrInvalidToken
	}

	out := &Claims{Subject: claims.Subject, Email: email}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
