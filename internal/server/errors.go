package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/howard-nolan/studyproxy/internal/auth"
	"github.com/howard-nolan/studyproxy/internal/provider"
	"github.com/howard-nolan/studyproxy/internal/study"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
)

// errorStatus maps an error from any stage to its HTTP status. Order
// matters: a timeout surfaces wrapped in a transport error, and
// ErrEmptyResult wraps ErrRejected.
func errorStatus(err error) int {
	var fieldErr *study.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, waitlist.ErrAlreadyListed),
		errors.Is(err, waitlist.ErrAccountExists):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the fixed client-facing message for err. It never
// includes upstream bodies or credentials.
func errorMessage(err error) string {
	var fieldErr *study.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Message

	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"

	case errors.Is(err, provider.ErrNotConfigured):
		return "API key not configured"
	case errors.Is(err, waitlist.ErrNotConfigured):
		return "Database not configured"
	case errors.Is(err, auth.ErrNotConfigured):
		return "Authentication not configured"

	case errors.Is(err, study.ErrMalformedArtifact):
		return "Failed to parse flashcards"
	case errors.Is(err, provider.ErrTransport):
		return "Failed to reach AI provider"
	case errors.Is(err, provider.ErrRejected):
		return "AI provider returned an error"
	case errors.Is(err, provider.ErrShape):
		return "Invalid response from AI provider"

	case errors.Is(err, waitlist.ErrAlreadyListed):
		return "This email is already on the waitlist"
	case errors.Is(err, waitlist.ErrAccountExists):
		return "An account with this email already exists"

	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"

	default:
		return "Internal server error"
	}
}

// errorDetails returns the upstream's own message for diagnostic
// endpoints, or the error kind when the upstream sent none.
func errorDetails(err error) string {
	var upErr *provider.UpstreamError
	if !errors.As(err, &upErr) {
		return ""
	}
	if upErr.Message != "" {
		return upErr.Message
	}
	if upErr.Kind != nil {
		return upErr.Kind.Error()
	}
	return ""
}
