package auth

import (
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    *Service
	cookie CookieConfig
}

func NewHandler(svc *Service, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	if _, err := h.svc.Register(r.Context(), req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusCreated, "Registered !")
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	session, err := h.svc.Login(r.Context(), req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookie.Secure,
	})
	utils.WriteMessage(w, http.StatusOK, "Logged in successfully.")
}

// LogoutHandler flags the presented session expired and clears the cookie.
// It succeeds whether or not a session was presented.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			utils.WriteError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookie.Secure,
	})
	utils.WriteMessage(w, http.StatusOK, "Logged out successfully.")
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewUserResponse(user))
}

func (h *Handler) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
		return
	}

	var req UpdatePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.svc.UpdatePassword(r.Context(), user, req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Password updated")
}
