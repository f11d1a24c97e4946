package auth

import "errors"

var (
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken covers bad signatures, wrong audience, malformed
	// tokens and tokens without an email claim.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken means the token was valid but its exp has passed,
	// even allowing for clock skew.
	ErrExpiredToken = errors.New("token expired")

	// ErrNotConfigured means no signing secret was configured.
	ErrNotConfigured = errors.New("token verification not configured")
)
