package links

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/go-chi/chi/v5"
)

// RedirectHandler serves GET /{label}: 302 to the stored URL or 404.
func (h *Handler) RedirectHandler(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.ResolveLabel(r.Context(), chi.URLParam(r, "label"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, link.URL, http.StatusFound)
}
