package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repcount/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	hub    *Hub
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. db may be nil in
// tests; stopped sessions are then returned to the caller without being
// persisted.
func New(db *storage.DB, hub *Hub, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		hub:    hub,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Live session endpoints (API key required — frames are ingest)
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleStartSession)
		r.Get("/{id}", s.handleGetSession)
		r.Post("/{id}/frames", s.handlePushFrame)
		r.Post("/{id}/stop", s.handleStopSession)
		r.Get("/{id}/stream", s.handleStream)
	})

	// History endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/history", s.handleHistory)
	s.router.Get("/api/v1/history/{id}", s.handleHistoryDetail)
	s.router.Get("/api/v1/stats", s.handleStats)
}
