package links

import (
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/go-chi/chi/v5"
)

type LinkResponse struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorID    string    `json:"author_id"`
}

func NewLinkResponse(l *models.Link) LinkResponse {
	return LinkResponse{
		ID:          l.ID,
		Label:       l.Label,
		URL:         l.URL,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		AuthorID:    l.UserID,
	}
}

func newLinkResponses(ls []models.Link) []LinkResponse {
	out := make([]LinkResponse, 0, len(ls))
	for i := range ls {
		out = append(out, NewLinkResponse(&ls[i]))
	}
	return out
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
	}
	return user, ok
}

func (h *Handler) GetLinkHandler(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewLinkResponse(link))
}

func (h *Handler) GetLinkByLabelHandler(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GetByLabel(r.Context(), chi.URLParam(r, "label"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewLinkResponse(link))
}

func (h *Handler) MyLinksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, err := utils.ParsePage(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ls, err := h.svc.ListMine(r.Context(), user, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newLinkResponses(ls))
}

func (h *Handler) UserLinksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, err := utils.ParsePage(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ls, err := h.svc.ListForUser(r.Context(), user, chi.URLParam(r, "user_id"), page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newLinkResponses(ls))
}

func (h *Handler) CreateLinkHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	link, err := h.svc.Create(r.Context(), user, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewLinkResponse(link))
}

func (h *Handler) UpdateLinkHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	link, err := h.svc.Update(r.Context(), user, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewLinkResponse(link))
}

func (h *Handler) DeleteLinkHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Link deleted successfully.")
}
