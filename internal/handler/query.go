package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// QueryHandler handles queries raised against applications
type QueryHandler struct {
	queryService services.QueryService
	logger       *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService services.QueryService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// ListQueries lists an application's queries
// GET /api/applications/{id}/queries
func (h *QueryHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	queries, err := h.queryService.ListQueries(r.Context(), principal(r), appID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, queries)
}

// RaiseQuery opens a query and moves the application to the Query status
// POST /api/applications/{id}/queries
func (h *QueryHandler) RaiseQuery(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req services.RaiseQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := h.queryService.RaiseQuery(r.Context(), principal(r), appID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, q)
}

// ResolveQuery marks a query resolved
// PATCH /api/queries/{id}/resolve
func (h *QueryHandler) ResolveQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := h.queryService.ResolveQuery(r.Context(), principal(r), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, q)
}

// UnresolveQuery reopens a query
// PATCH /api/queries/{id}/unresolve
func (h *QueryHandler) UnresolveQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := h.queryService.UnresolveQuery(r.Context(), principal(r), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, q)
}
