package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Get("/health", h.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		// public routes here
		r.Get("/games", h.ListGames)
		r.Get("/games/", h.ListGames)
		r.Get("/draws", h.ListDraws)
		r.Get("/draws/", h.ListDraws)

		// routes that change state, guarded when auth is configured
		r.Group(func(r chi.Router) {
			if h.tokenAuth != nil {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)
			}

			r.Post("/games", h.CreateGame)
			r.Post("/games/", h.CreateGame)
			r.Delete("/games/{gameID}", h.DeleteGame)
			r.Post("/draws", h.CreateDraw)
			r.Post("/draws/", h.CreateDraw)
		})
	})
}

// InitAuth enables HS256 token checks on mutating routes. Tokens are issued
// elsewhere; an empty secret leaves the routes open.
func (h *Handler) InitAuth(secret string) {
	if secret == "" {
		log.Warn("JWT_SECRET_KEY not set, mutating routes are not authenticated")
		return
	}
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
}
