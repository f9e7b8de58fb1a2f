package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"titledesk/internal/config"
	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk
const multipartMemory = 8 << 20

// DocumentHandler handles application documents and PDF uploads
type DocumentHandler struct {
	docService services.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// ListDocuments lists an application's documents
// GET /api/applications/{id}/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.docService.ListDocuments(r.Context(), principal(r), appID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// UploadDocument stores a multipart "file" in the application's cloud folder
// POST /api/applications/{id}/documents
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	file, header, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.docService.UploadDocument(r.Context(), principal(r), &services.UploadDocumentRequest{
		ApplicationID: appID,
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Content:       file,
		DriveToken:    driveToken(r),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GenerateDocument copies a template into the application folder
// POST /api/applications/{id}/documents/generate
func (h *DocumentHandler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req services.GenerateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ApplicationID = appID
	req.DriveToken = driveToken(r)

	doc, err := h.docService.GenerateDocument(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// DeleteDocument removes a document record and, with a drive token, the cloud file
// DELETE /api/application-documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), principal(r), id, driveToken(r)); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPDFUploads lists PDFs uploaded for an application
// GET /api/applications/{id}/pdf-uploads
func (h *DocumentHandler) ListPDFUploads(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	uploads, err := h.docService.ListPDFUploads(r.Context(), principal(r), appID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, uploads)
}

// UploadPDF stores a PDF under the financial-year folder of the application
// named by the "applicationId" form field
// POST /onedrive/pdf-upload
func (h *DocumentHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	file, header, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.docService.UploadPDF(r.Context(), principal(r), &services.UploadDocumentRequest{
		ApplicationID: r.FormValue("applicationId"),
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Content:       file,
		DriveToken:    driveToken(r),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, upload)
}

// readMultipartFile parses a size-limited multipart body and returns the named file part
func readMultipartFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return nil, nil, false
		}
		httputil.RespondError(w, http.StatusBadRequest, "expected multipart/form-data body")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing \""+field+"\" file part")
		return nil, nil, false
	}
	return file, header, true
}
