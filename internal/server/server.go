// Package server exposes the application state over a small JSON API.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/fitrack/internal/core"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	core   *core.Core
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(c *core.Core, log *slog.Logger) *Server {
	s := &Server{
		core:   c,
		log:    log,
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

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/exercises", s.handleExercises)
		r.Get("/history", s.handleHistory)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/training", func(r chi.Router) {
			r.Get("/", s.handleTrainingStatus)
			r.Post("/start", s.handleTrainingStart)
			r.Post("/pause", s.handleTrainingPause)
			r.Post("/resume", s.handleTrainingResume)
			r.Post("/stop", s.handleTrainingStop)
		})
	})
}
