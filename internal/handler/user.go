package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// UserHandler handles user administration
type UserHandler struct {
	userService services.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers lists users
// GET /api/users?search=&roleId=&status=&page=&limit=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := &models.UserFilter{
		ListFilter: listFilter(r),
		RoleID:     httputil.QueryString(r, "roleId"),
		Status:     models.UserStatus(httputil.QueryString(r, "status")),
	}

	page, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// CreateUser creates a user
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.userService.CreateUser(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, user)
}

// GetUser retrieves a user
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update
// PATCH /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser deletes a user
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForceLogout revokes every token issued to the user so far
// POST /api/users/{id}/force-logout
func (h *UserHandler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.ForceLogout(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserPermissions shows overrides and the effective set
// GET /api/users/{id}/permissions
func (h *UserHandler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	perms, err := h.userService.GetUserPermissions(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, perms)
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// SetUserPermissions replaces the user-specific overrides
// PUT /api/users/{id}/permissions
func (h *UserHandler) SetUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req permissionsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	perms, err := h.userService.SetUserPermissions(r.Context(), principal(r), id, req.Permissions)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, perms)
}
