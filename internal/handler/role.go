package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// RoleHandler handles roles and the permission catalog
type RoleHandler struct {
	roleService services.RoleService
	logger      *slog.Logger
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService services.RoleService, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		logger:      logger,
	}
}

// ListPermissions returns the catalog grouped by module
// GET /api/permissions
func (h *RoleHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.roleService.ListPermissions(r.Context()))
}

// GET /api/roles
func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.ListRoles(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, roles)
}

// POST /api/roles
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req services.RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role, err := h.roleService.CreateRole(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, role)
}

// GET /api/roles/{id}
func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, role)
}

// PUT /api/roles/{id}
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req services.RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role, err := h.roleService.UpdateRole(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, role)
}

// DeleteRole deletes a role no user holds
// DELETE /api/roles/{id}
func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
