package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// SettingsService is the in-memory view of app settings backed by the key/value table
type SettingsService interface {
	// Current returns the cached settings without touching the database
	Current() models.AppSettings

	// Reload re-reads every key from the database
	Reload(ctx context.Context) (models.AppSettings, error)

	// Update validates and persists the given fields, then refreshes the cache
	Update(ctx context.Context, p *models.Principal, req *UpdateSettingsRequest) (models.AppSettings, error)
}

// UpdateSettingsRequest is a partial update; nil fields are left unchanged
type UpdateSettingsRequest struct {
	FileNumberPrefix   *string `json:"fileNumberPrefix,omitempty"`
	FileNumberSequence *int    `json:"fileNumberSequence,omitempty"`
	FileNumberPadding  *int    `json:"fileNumberPadding,omitempty"`
	BusinessName       *string `json:"businessName,omitempty"`
	BusinessEmail      *string `json:"businessEmail,omitempty"`
	BusinessPhone      *string `json:"businessPhone,omitempty"`
	BusinessAddress    *string `json:"businessAddress,omitempty"`
	BusinessWebsite    *string `json:"businessWebsite,omitempty"`
}
