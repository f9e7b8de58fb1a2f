package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// SettingsHandler handles app settings
type SettingsHandler struct {
	settings services.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger,
	}
}

// GetSettings returns the cached settings
// GET /api/app-settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.settings.Current())
}

// UpdateSettings applies the provided fields
// PUT /api/app-settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	settings, err := h.settings.Update(r.Context(), principal(r), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, settings)
}

// ReloadSettings re-reads settings from the database
// POST /api/app-settings/reload
func (h *SettingsHandler) ReloadSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Reload(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, settings)
}
