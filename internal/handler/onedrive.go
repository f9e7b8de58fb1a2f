package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// OneDriveHandler proxies cloud drive operations with the caller's delegated token
type OneDriveHandler struct {
	storage services.CloudStorage
	logger  *slog.Logger
}

// NewOneDriveHandler creates a new cloud drive proxy handler
func NewOneDriveHandler(storage services.CloudStorage, logger *slog.Logger) *OneDriveHandler {
	return &OneDriveHandler{
		storage: storage,
		logger:  logger,
	}
}

// requireToken writes a 400 when the drive token header is missing
func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := driveToken(r)
	if token == "" {
		httputil.RespondError(w, http.StatusBadRequest, DriveTokenHeader+" header is required")
		return "", false
	}
	return token, true
}

func itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "item id is required")
		return "", false
	}
	return id, true
}

type createFolderRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// CreateFolder creates a folder under parentId, or every missing folder along path
// POST /onedrive/folders
func (h *OneDriveHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req createFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Path = strings.Trim(strings.TrimSpace(req.Path), "/")

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Path, validation.When(req.Name == "", validation.Required.Error("name or path is required"))),
		validation.Field(&req.Name, validation.Length(0, config.MaxNameLength)),
	); err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	var (
		item *models.DriveItem
		err  error
	)
	if req.Path != "" {
		item, err = h.storage.EnsureFolderPath(r.Context(), token, req.Path)
	} else {
		item, err = h.storage.CreateFolder(r.Context(), token, req.ParentID, req.Name)
	}
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.logger.Info("drive folder created", "user_id", httputil.GetUserID(r), "path", req.Path, "name", req.Name)
	httputil.RespondJSON(w, http.StatusCreated, item)
}

type createFileRequest struct {
	ParentID    string `json:"parentId"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// CreateFile writes a small text file from the JSON body
// POST /onedrive/files
func (h *OneDriveHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req createFileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.ContentType == "" {
		req.ContentType = "text/plain; charset=utf-8"
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
	); err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	item, err := h.storage.UploadFile(r.Context(), token, req.ParentID, req.Name,
		strings.NewReader(req.Content), int64(len(req.Content)), req.ContentType)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.logger.Info("drive file created", "user_id", httputil.GetUserID(r), "item_id", item.ID)
	httputil.RespondJSON(w, http.StatusCreated, item)
}

type copyRequest struct {
	ItemID   string `json:"itemId"`
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
}

// CopyItem starts an asynchronous copy and returns the monitor URL
// POST /onedrive/copy
func (h *OneDriveHandler) CopyItem(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	var req copyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.ItemID, validation.Required),
		validation.Field(&req.ParentID, validation.Required),
		validation.Field(&req.Name, validation.Length(0, config.MaxNameLength)),
	); err != nil {
		handleError(w, r, h.logger, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	monitorURL, err := h.storage.CopyItem(r.Context(), token, req.ItemID, req.ParentID, strings.TrimSpace(req.Name))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.logger.Info("drive copy started", "user_id", httputil.GetUserID(r), "item_id", req.ItemID)
	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"monitorUrl": monitorURL})
}

// Upload stores a multipart "file" under the "parentId" form field
// POST /onedrive/upload
func (h *OneDriveHandler) Upload(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	file, header, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	item, err := h.storage.UploadFile(r.Context(), token, r.FormValue("parentId"), header.Filename, file, header.Size, contentType)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	h.logger.Info("drive file uploaded", "user_id", httputil.GetUserID(r), "item_id", item.ID, "size", header.Size)
	httputil.RespondJSON(w, http.StatusCreated, item)
}

// Download streams an item's content
// GET /onedrive/items/{id}/content
func (h *OneDriveHandler) Download(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	content, err := h.storage.Download(r.Context(), token, id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	defer content.Body.Close()

	if content.ContentType != "" {
		w.Header().Set("Content-Type", content.ContentType)
	}
	if content.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(content.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content.Body); err != nil {
		h.logger.Debug("download interrupted", "item_id", id, "error", err)
	}
}

// Lock checks an item out
// POST /onedrive/items/{id}/lock
func (h *OneDriveHandler) Lock(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.storage.Checkout(r.Context(), token, id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	h.logger.Info("drive item locked", "user_id", httputil.GetUserID(r), "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type unlockRequest struct {
	Comment string `json:"comment"`
}

// Unlock checks an item back in with an optional comment
// POST /onedrive/items/{id}/unlock
func (h *OneDriveHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req unlockRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	if err := h.storage.Checkin(r.Context(), token, id, req.Comment); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	h.logger.Info("drive item unlocked", "user_id", httputil.GetUserID(r), "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem deletes a drive item
// DELETE /onedrive/items/{id}
func (h *OneDriveHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteItem(r.Context(), token, id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	h.logger.Info("drive item deleted", "user_id", httputil.GetUserID(r), "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}
