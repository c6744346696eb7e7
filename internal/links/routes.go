package links

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /links. Single-link reads are public.
func SetupRoutes(h *Handler, sessions middleware.SessionFetcher, cookieName string) http.Handler {
	r := chi.NewRouter()

	r.Get("/label/{label}", h.GetLinkByLabelHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions, cookieName))
		r.Get("/", h.MyLinksHandler)
		r.Post("/", h.CreateLinkHandler)
		r.Put("/", h.UpdateLinkHandler)
		r.Get("/user/{user_id}", h.UserLinksHandler)
		r.Delete("/{id}", h.DeleteLinkHandler)
	})

	r.Get("/{id}", h.GetLinkHandler)

	return r
}
