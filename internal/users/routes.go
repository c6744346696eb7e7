package users

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /users. Every route needs a session; finer
// checks happen in the service.
func SetupRoutes(h *Handler, sessions middleware.SessionFetcher, cookieName string, admins middleware.AdminChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions, cookieName))

	r.Get("/", h.ListUsersHandler)
	r.With(middleware.AdminMiddleware(admins)).Get("/admin-check", h.AdminCheckHandler)

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.ListRolesHandler)
		r.Post("/", h.CreateRoleHandler)
		r.Delete("/{role_id}", h.DeleteRoleHandler)
		r.Get("/{role_id}/permissions", h.RolePermissionsHandler)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.Get("/", h.ListPermissionsHandler)
		r.Post("/", h.CreatePermissionHandler)
		r.Delete("/{permission_id}", h.DeletePermissionHandler)
	})

	r.Route("/{user_id}", func(r chi.Router) {
		r.Delete("/", h.DeleteUserHandler)
		r.Get("/roles", h.UserRolesHandler)
		r.Post("/roles/{role_id}", h.AssignRoleHandler)
		r.Delete("/roles/{role_id}", h.RemoveRoleHandler)
		r.Post("/permissions", h.GrantPermissionHandler)
	})

	return r
}
