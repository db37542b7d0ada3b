// Package web serves the flashcard library as a JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/generator"
	"github.com/conorfennell/flashmind/internal/library"
	"github.com/conorfennell/flashmind/internal/session"
	"github.com/conorfennell/flashmind/internal/source"
	"github.com/conorfennell/flashmind/internal/srs"
)

// maxBodyBytes bounds request bodies; generation sources are the largest.
const maxBodyBytes = 1 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	lib      *library.Library
	gen      generator.Generator
	importer *source.Importer
	sessions *session.Registry
	params   *srs.Params
	logger   *slog.Logger
	now      func() time.Time
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithParams replaces the scheduler parameters used by review sessions.
func WithParams(p *srs.Params) Option {
	return func(s *Server) {
		s.params = p
	}
}

// NewServer creates and configures a new server.
func NewServer(lib *library.Library, gen generator.Generator, importer *source.Importer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		lib:      lib,
		gen:      gen,
		importer: importer,
		sessions: session.NewRegistry(),
		params:   srs.DefaultParams(),
		logger:   logger,
		now:      domain.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", s.handleListDecks())
		r.Post("/decks", s.handleCreateDeck())
		r.Route("/decks/{deckID}", func(r chi.Router) {
			r.Patch("/", s.handleUpdateDeck())
			r.Delete("/", s.handleDeleteDeck())
			r.Get("/cards", s.handleListCards())
			r.Post("/cards", s.handleAddCards())
			r.Get("/due", s.handleDue())
			r.Post("/generate", s.handleGenerate())
			r.Post("/import", s.handleImport())
		})

		r.Post("/sessions", s.handleStartSession())
		r.Get("/sessions/{sessionID}", s.handleGetSession())
		r.Post("/sessions/{sessionID}/grade", s.handleGrade())
		r.Delete("/sessions/{sessionID}", s.handleEndSession())

		r.Get("/due", s.handleDue())
		r.Get("/stats", s.handleStats())
		r.Get("/settings", s.handleGetSettings())
		r.Put("/settings", s.handleUpdateSettings())
		r.Get("/export", s.handleExport())
	})

	s.router = r
}
