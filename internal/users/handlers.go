package users

import (
	"fmt"
	"net/http"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/go-chi/chi/v5"
)

type RoleResponse struct {
	ID               string  `json:"id"`
	Name             *string `json:"name"`
	PermissionsCount int     `json:"permissions_count"`
}

type PermissionResponse struct {
	ID           string  `json:"id"`
	ActionName   string  `json:"action_name"`
	ResourceName string  `json:"resource_name"`
	ResourceID   *string `json:"resource_id"`
}

func newRoleResponses(roles []models.Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse{ID: r.ID, Name: r.Name, PermissionsCount: len(r.Permissions)})
	}
	return out
}

func newPermissionResponse(p models.Permission) PermissionResponse {
	return PermissionResponse{ID: p.ID, ActionName: p.Action, ResourceName: p.ResourceName, ResourceID: p.ResourceID}
}

func newPermissionResponses(perms []models.Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, newPermissionResponse(p))
	}
	return out
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// caller returns the session user, writing a 401 when there is none.
func caller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := utils.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, r, apperr.Unauthenticated("Not authenticated."))
	}
	return user, ok
}

func callerAndPage(w http.ResponseWriter, r *http.Request) (*models.User, utils.Page, bool) {
	user, ok := caller(w, r)
	if !ok {
		return nil, utils.Page{}, false
	}
	page, err := utils.ParsePage(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return nil, utils.Page{}, false
	}
	return user, page, true
}

func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	user, page, ok := callerAndPage(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListUsers(r.Context(), user, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	out := make([]auth.UserResponse, 0, len(list))
	for i := range list {
		out = append(out, auth.NewUserResponse(&list[i]))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "user_id")
	if err := h.svc.DeleteUser(r.Context(), user, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, fmt.Sprintf("User %s deleted successfully.", id))
}

func (h *Handler) UserRolesHandler(w http.ResponseWriter, r *http.Request) {
	user, page, ok := callerAndPage(w, r)
	if !ok {
		return
	}
	roles, err := h.svc.UserRoles(r.Context(), user, chi.URLParam(r, "user_id"), page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newRoleResponses(roles))
}

func (h *Handler) AssignRoleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	added, err := h.svc.AssignRole(r.Context(), user, chi.URLParam(r, "user_id"), chi.URLParam(r, "role_id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if !added {
		utils.WriteMessage(w, http.StatusOK, "User already has this role.")
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Role assigned to user successfully.")
}

func (h *Handler) RemoveRoleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveRole(r.Context(), user, chi.URLParam(r, "user_id"), chi.URLParam(r, "role_id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Role removed from user successfully.")
}

func (h *Handler) GrantPermissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	var req GrantRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := h.svc.GrantToUser(r.Context(), user, chi.URLParam(r, "user_id"), req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Permission added successfully.")
}

func (h *Handler) ListRolesHandler(w http.ResponseWriter, r *http.Request) {
	user, page, ok := callerAndPage(w, r)
	if !ok {
		return
	}
	roles, err := h.svc.ListRoles(r.Context(), user, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newRoleResponses(roles))
}

func (h *Handler) CreateRoleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	var req CreateRoleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := h.svc.CreateRole(r.Context(), user, req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, fmt.Sprintf("Role '%s' created successfully.", req.Name))
}

func (h *Handler) DeleteRoleHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRole(r.Context(), user, chi.URLParam(r, "role_id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Role deleted successfully.")
}

func (h *Handler) RolePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	user, page, ok := callerAndPage(w, r)
	if !ok {
		return
	}
	perms, err := h.svc.RolePermissions(r.Context(), user, chi.URLParam(r, "role_id"), page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newPermissionResponses(perms))
}

func (h *Handler) ListPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	user, page, ok := callerAndPage(w, r)
	if !ok {
		return
	}
	perms, err := h.svc.ListPermissions(r.Context(), user, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, newPermissionResponses(perms))
}

func (h *Handler) CreatePermissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	var req CreatePermissionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if _, err := h.svc.CreatePermission(r.Context(), user, req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Permission created successfully.")
}

func (h *Handler) DeletePermissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePermission(r.Context(), user, chi.URLParam(r, "permission_id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Permission deleted successfully.")
}

// AdminCheckHandler sits behind AdminMiddleware; reaching it means yes.
func (h *Handler) AdminCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, true)
}
