package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// BranchHandler handles branch offices
type BranchHandler struct {
	branchService services.BranchService
	logger        *slog.Logger
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(branchService services.BranchService, logger *slog.Logger) *BranchHandler {
	return &BranchHandler{
		branchService: branchService,
		logger:        logger,
	}
}

// GET /api/branches
func (h *BranchHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	page, err := h.branchService.ListBranches(r.Context(), &filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// POST /api/branches
func (h *BranchHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req services.BranchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	branch, err := h.branchService.CreateBranch(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, branch)
}

// GET /api/branches/{id}
func (h *BranchHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	branch, err := h.branchService.GetBranch(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, branch)
}

// PUT /api/branches/{id}
func (h *BranchHandler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req services.BranchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	branch, err := h.branchService.UpdateBranch(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, branch)
}

// DELETE /api/branches/{id}
func (h *BranchHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.branchService.DeleteBranch(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
