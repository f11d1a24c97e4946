package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/studyproxy/internal/auth"
	"github.com/howard-nolan/studyproxy/internal/study"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
)

type waitlistResponse struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// accessResponse always carries hasAccess, including on errors, so a
// client that only reads that field still denies.
type accessResponse struct {
	HasAccess bool   `json:"hasAccess"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWaitlist adds an email to the waitlist.
func (s *Server) handleWaitlist(r *http.Request) (int, any, error) {
	if !s.waitlist.Configured() {
		return 0, nil, waitlist.ErrNotConfigured
	}

	var req waitlist.JoinRequest
	if err := study.Decode(r.Body, &req); err != nil {
		return 0, nil, err
	}

	entry, err := s.waitlist.Join(r.Context(), req.Email)
	if err != nil {
		return 0, nil, err
	}

	return http.StatusCreated, waitlistResponse{Email: entry.Email, Status: string(entry.Status)}, nil
}

// handleCheckAccess verifies the caller's access token and reports whether
// their email has been let in. Any failure denies.
func (s *Server) handleCheckAccess(r *http.Request) (int, any, error) {
	if s.verifier == nil {
		return s.denyAccess(r, auth.ErrNotConfigured)
	}
	if !s.waitlist.Configured() {
		return s.denyAccess(r, waitlist.ErrNotConfigured)
	}

	token, err := auth.BearerToken(r)
	if err != nil {
		return s.denyAccess(r, err)
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		return s.denyAccess(r, err)
	}

	status, ok, err := s.waitlist.Access(r.Context(), claims.Email)
	if err != nil {
		return s.denyAccess(r, err)
	}

	return http.StatusOK, accessResponse{HasAccess: ok, Status: string(status)}, nil
}

// denyAccess builds the error response for the access check. Lookup
// failures are reported as a generic verification failure and never grant
// access.
func (s *Server) denyAccess(r *http.Request, err error) (int, any, error) {
	status := errorStatus(err)
	msg := errorMessage(err)

	if status == http.StatusInternalServerError &&
		!errors.Is(err, auth.ErrNotConfigured) &&
		!errors.Is(err, waitlist.ErrNotConfigured) {
		msg = "Failed to verify access"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("access check failed, denying",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	} else {
		slog.Debug("access check rejected",
			"request_id", middleware.GetReqID(r.Context()),
			"status", status,
			"error", err)
	}

	return status, accessResponse{HasAccess: false, Error: msg}, nil
}
