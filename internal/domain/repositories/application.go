package repositories

import (
	"context"

	"titledesk/internal/domain/models"
)

// ApplicationRepository defines data access operations for applications
type ApplicationRepository interface {
	// Create inserts an application and fills in ID and timestamps
	Create(ctx context.Context, app *models.Application) error

	// GetByID retrieves an application by ID, including soft-deleted rows
	GetByID(ctx context.Context, id string) (*models.Application, error)

	// List returns one page of applications matching the filter plus the total match count
	List(ctx context.Context, filter *models.ApplicationFilter) ([]models.Application, int, error)

	// Update writes all mutable columns and bumps updated_at
	Update(ctx context.Context, app *models.Application) error

	// SetStatus changes only the workflow status
	SetStatus(ctx context.Context, id string, status models.ApplicationStatus) error

	// FileNumberExists reports whether any application (deleted or not) uses fileNumber
	FileNumberExists(ctx context.Context, fileNumber string) (bool, error)
}

// QueryRepository defines data access operations for application queries
type QueryRepository interface {
	Create(ctx context.Context, q *models.Query) error
	GetByID(ctx context.Context, id string) (*models.Query, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.Query, error)

	// UpdateResolution persists status, resolved_by and resolved_date
	UpdateResolution(ctx context.Context, q *models.Query) error
}

// ApplicationDocumentRepository defines data access for application files and PDF uploads
type ApplicationDocumentRepository interface {
	Create(ctx context.Context, doc *models.ApplicationDocument) error
	GetByID(ctx context.Context, id string) (*models.ApplicationDocument, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.ApplicationDocument, error)
	Delete(ctx context.Context, id string) error

	CreatePDFUpload(ctx context.Context, upload *models.ApplicationPDFUpload) error
	ListPDFUploads(ctx context.Context, applicationID string) ([]models.ApplicationPDFUpload, error)
}
