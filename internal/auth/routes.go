package auth

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /auth. loginLimit throttles credential guessing.
func SetupRoutes(h *Handler, sessions middleware.SessionFetcher, loginLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.RegisterHandler)
	r.With(loginLimit).Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions, h.cookie.Name))
		r.Get("/me", h.MeHandler)
		r.Post("/password", h.UpdatePasswordHandler)
	})

	return r
}
