package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// ApplicationHandler handles application HTTP requests
type ApplicationHandler struct {
	appService services.ApplicationService
	logger     *slog.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService services.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		appService: appService,
		logger:     logger,
	}
}

// ListApplications lists applications visible to the caller
// GET /api/applications?status=&company=&branch=&search=&from=&to=&sortBy=&order=&page=&limit=
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.QueryDate(r, "from", false)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := httputil.QueryDate(r, "to", true)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := &models.ApplicationFilter{
		Status:   models.ApplicationStatus(httputil.QueryString(r, "status")),
		Company:  httputil.QueryString(r, "company"),
		Branch:   httputil.QueryString(r, "branch"),
		Search:   httputil.QueryString(r, "search"),
		From:     from,
		To:       to,
		SortBy:   models.ApplicationSortField(httputil.QueryString(r, "sortBy")),
		SortDesc: !strings.EqualFold(httputil.QueryString(r, "order"), "asc"),
		Page:     httputil.QueryInt(r, "page"),
		Limit:    httputil.QueryInt(r, "limit"),
	}

	page, err := h.appService.ListApplications(r.Context(), principal(r), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// CreateApplication creates an application, generating a file number when none is given
// POST /api/applications
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req services.CreateApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.DriveToken = driveToken(r)

	app, err := h.appService.CreateApplication(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, app)
}

// GetApplication retrieves an application
// GET /api/applications/{id}
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	app, err := h.appService.GetApplication(r.Context(), principal(r), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, app)
}

// updateApplicationBody distinguishes an explicit null remarks from an absent one.
// The outer Remarks field shadows the embedded one when decoding.
type updateApplicationBody struct {
	services.UpdateApplicationRequest
	Remarks httputil.OptionalString `json:"remarks"`
}

// UpdateApplication applies a partial update
// PATCH /api/applications/{id}
func (h *ApplicationHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body updateApplicationBody
	if !decodeBody(w, r, &body) {
		return
	}
	req := body.UpdateApplicationRequest
	req.Remarks, req.ClearRemarks = body.Remarks.Patch()

	app, err := h.appService.UpdateApplication(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, app)
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status"`
}

// UpdateStatus moves the application to another workflow status
// PATCH /api/applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.appService.UpdateStatus(r.Context(), principal(r), id, req.Status)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, app)
}

// DeleteApplication soft-deletes an application
// DELETE /api/applications/{id}
func (h *ApplicationHandler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.appService.DeleteApplication(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
