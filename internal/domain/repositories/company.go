package repositories

import (
	"context"

	"titledesk/internal/domain/models"
)

// CompanyRepository defines data access operations for companies and their linked files
type CompanyRepository interface {
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context, filter *models.ListFilter) ([]models.Company, int, error)
	Update(ctx context.Context, c *models.Company) error

	// Delete hard-deletes the company; company files cascade
	Delete(ctx context.Context, id string) error

	// NamesByIDs resolves company IDs to names, skipping unknown IDs
	NamesByIDs(ctx context.Context, ids []string) ([]string, error)

	CreateFile(ctx context.Context, f *models.CompanyFile) error
	ListFiles(ctx context.Context, companyID string) ([]models.CompanyFile, error)
	DeleteFile(ctx context.Context, id string) error
}

// BranchRepository defines data access operations for branches
type BranchRepository interface {
	Create(ctx context.Context, b *models.Branch) error
	GetByID(ctx context.Context, id string) (*models.Branch, error)
	List(ctx context.Context, filter *models.ListFilter) ([]models.Branch, int, error)
	Update(ctx context.Context, b *models.Branch) error
	Delete(ctx context.Context, id string) error
}
