// Package server sets up the HTTP router, middleware, and request handlers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/studyproxy/internal/auth"
	"github.com/howard-nolan/studyproxy/internal/config"
	"github.com/howard-nolan/studyproxy/internal/provider"
	"github.com/howard-nolan/studyproxy/internal/study"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
)

// Deps are the long-lived handles built once at startup.
type Deps struct {
	// Providers is keyed by provider name, as in config.Providers.
	Providers map[string]provider.Provider

	// Waitlist may be unconfigured; its endpoints then answer 500.
	Waitlist *waitlist.Service

	// Verifier is nil when no JWT secret is configured.
	Verifier *auth.Verifier
}

// Server holds the HTTP router and everything handlers need. All fields
// are read-only after New, so handlers share them without locking.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	providers map[string]provider.Provider
	bypass    *study.Bypass
	waitlist  *waitlist.Service
	verifier  *auth.Verifier
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		providers: deps.Providers,
		bypass:    study.NewBypass(cfg.Bypass.Phrases, cfg.Bypass.Answer),
		waitlist:  deps.Waitlist,
		verifier:  deps.Verifier,
	}
	s.routes()
	return s
}

// providerFor returns the provider bound to an endpoint. An unknown name
// gets a placeholder, so the endpoint reports a configuration error instead
// of panicking.
func (s *Server) providerFor(name string) provider.Provider {
	if p, ok := s.providers[name]; ok && p != nil {
		return p
	}
	return provider.Missing(name)
}

// routes builds the chi router with all middleware and route definitions.
func (s *Server) routes() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	// Handlers recover their own panics into JSON; this catches the rest.
	r.Use(middleware.Recoverer)

	// Every /api route is POST-only. chi calls this for any other method on
	// a known path, before the body is read.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found", "")
	})

	// --- Routes ---
	r.Get("/health", s.handleHealth)

	ep := s.cfg.Endpoints
	r.Post("/api/ask", s.dispatch("ask", s.providerFor(ep.Ask), s.handleAsk(study.AskTemperature, false)))
	r.Post("/api/ask-gemini", s.dispatch("ask-gemini", s.providerFor(ep.AskGemini), s.handleAsk(study.AskGeminiTemperature, true)))
	r.Post("/api/study", s.dispatch("study", s.providerFor(ep.Study), s.handleStudy))
	r.Post("/api/review", s.dispatch("review", s.providerFor(ep.Review), s.handleReview))

	// The workflow call can be slow; it gets its own deadline, and the
	// upstream call is cancelled when it passes.
	var workflow chi.Router = r
	if d := s.cfg.Server.WorkflowTimeout; d > 0 {
		workflow = r.With(deadline(d))
	}
	workflow.Post("/api/review-workflow", s.dispatch("review-workflow", s.providerFor(ep.ReviewWorkflow), s.handleReviewWorkflow, withDetails()))

	r.Post("/api/waitlist", s.serve("waitlist", s.handleWaitlist))
	r.Post("/api/check-access", s.serve("check-access", s.handleCheckAccess))

	s.router = r
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
