package services

import (
	"context"
	"io"

	"titledesk/internal/domain/models"
)

// CloudStorage is the cloud drive used for application folders and documents.
// Every call carries the caller's delegated access token.
type CloudStorage interface {
	GetItem(ctx context.Context, token, itemID string) (*models.DriveItem, error)

	// EnsureFolderPath creates any missing folders along path and returns the last one
	EnsureFolderPath(ctx context.Context, token, path string) (*models.DriveItem, error)
	CreateFolder(ctx context.Context, token, parentID, name string) (*models.DriveItem, error)

	// UploadFile stores content as parentID/name, replacing an existing file
	UploadFile(ctx context.Context, token, parentID, name string, content io.Reader, size int64, contentType string) (*models.DriveItem, error)

	// CopyItem starts an asynchronous copy and returns the monitor URL
	CopyItem(ctx context.Context, token, itemID, parentID, name string) (string, error)
	Download(ctx context.Context, token, itemID string) (*models.DriveContent, error)

	Checkout(ctx context.Context, token, itemID string) error
	Checkin(ctx context.Context, token, itemID, comment string) error
	DeleteItem(ctx context.Context, token, itemID string) error
}
