package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/studyproxy/internal/provider"
)

// maxBodyBytes caps request bodies. Review requests carry images as data
// URLs, so this is well above what text-only endpoints need.
const maxBodyBytes = 20 << 20

// endpoint is a handler that returns its result instead of writing it.
// On success it returns the status and the value to encode; on failure it
// returns an error that errorStatus and errorMessage know how to map.
type endpoint func(r *http.Request) (int, any, error)

// generateEndpoint is an endpoint that talks to an LLM provider.
type generateEndpoint func(r *http.Request, p provider.Provider) (int, any, error)

type serveOptions struct {
	details bool
}

type serveOption func(*serveOptions)

// withDetails adds the upstream's error message to error responses.
func withDetails() serveOption {
	return func(o *serveOptions) { o.details = true }
}

// dispatch wraps a provider-backed endpoint. The provider's configuration
// is checked before the body is read, so a missing key never gets as far
// as decoding user input.
func (s *Server) dispatch(name string, p provider.Provider, h generateEndpoint, opts ...serveOption) http.HandlerFunc {
	return s.serve(name, func(r *http.Request) (int, any, error) {
		if err := p.Ready(); err != nil {
			return 0, nil, err
		}
		return h(r, p)
	}, opts...)
}

// serve turns an endpoint into an http.HandlerFunc that always writes
// exactly one JSON response, including when h panics.
func (s *Server) serve(name string, h endpoint, opts ...serveOption) http.HandlerFunc {
	var o serveOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())

		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic in handler",
					"endpoint", name,
					"request_id", reqID,
					"panic", rec,
					"stack", string(debug.Stack()))
				respondError(w, http.StatusInternalServerError, "Internal server error", "")
			}
		}()

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		status, body, err := h(r)
		if err != nil {
			status = errorStatus(err)

			details := ""
			if o.details {
				details = errorDetails(err)
			}

			if status >= http.StatusInternalServerError {
				slog.Error("request failed",
					"endpoint", name,
					"request_id", reqID,
					"status", status,
					"error", err)
			} else {
				slog.Debug("request rejected",
					"endpoint", name,
					"request_id", reqID,
					"status", status,
					"error", err)
			}

			respondError(w, status, errorMessage(err), details)
			return
		}

		respondJSON(w, status, body)
	}
}

// deadline bounds the request context and writes nothing itself. serve
// turns context.DeadlineExceeded into the 504 body.
func deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
