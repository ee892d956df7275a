package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Post("/logout", s.handleLogout)
			r.Get("/session", s.handleSession)
			r.Post("/session/answer", s.handleAnswer)
			r.Post("/session/advance", s.handleAdvance)
			r.Post("/session/difficult", s.handleStartDifficultReview)
			r.Post("/session/return", s.handleReturnFromReview)
			r.Post("/session/review", s.handleStartReview)
			r.Post("/session/endless", s.handleStartEndless)
			r.Put("/session/target", s.handleSetTarget)
			r.Get("/readiness", s.handleReadiness)
			r.Post("/grammar/{id}/session", s.handleGrammarSession)
		})
	})

	return r
}
