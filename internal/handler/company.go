package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// CompanyHandler handles client companies and their linked documents
type CompanyHandler struct {
	companyService services.CompanyService
	logger         *slog.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService services.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// ListCompanies lists companies
// GET /api/companies?search=&page=&limit=
func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	page, err := h.companyService.ListCompanies(r.Context(), &filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// CreateCompany creates a company
// POST /api/companies
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req services.CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	company, err := h.companyService.CreateCompany(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, company)
}

// GetCompany retrieves a company
// GET /api/companies/{id}
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, company)
}

// UpdateCompany replaces a company's fields
// PUT /api/companies/{id}
func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req services.CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	company, err := h.companyService.UpdateCompany(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, company)
}

// DeleteCompany deletes a company and its linked documents
// DELETE /api/companies/{id}
func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.companyService.DeleteCompany(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCompanyFiles lists a company's linked documents
// GET /api/companies/{id}/documents
func (h *CompanyHandler) ListCompanyFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	files, err := h.companyService.ListCompanyFiles(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// AddCompanyFile links a document to a company
// POST /api/companies/{id}/documents
func (h *CompanyHandler) AddCompanyFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req services.CompanyFileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	file, err := h.companyService.AddCompanyFile(r.Context(), principal(r), id, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, file)
}

// DeleteCompanyFile removes a linked document
// DELETE /api/company-documents/{id}
func (h *CompanyHandler) DeleteCompanyFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.companyService.DeleteCompanyFile(r.Context(), principal(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
