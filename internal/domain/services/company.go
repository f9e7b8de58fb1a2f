package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// CompanyService handles client companies and their linked documents
type CompanyService interface {
	CreateCompany(ctx context.Context, p *models.Principal, req *CompanyRequest) (*models.Company, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	ListCompanies(ctx context.Context, filter *models.ListFilter) (*models.Page[models.Company], error)
	UpdateCompany(ctx context.Context, p *models.Principal, id string, req *CompanyRequest) (*models.Company, error)

	// DeleteCompany hard-deletes the company together with its linked documents
	DeleteCompany(ctx context.Context, p *models.Principal, id string) error

	AddCompanyFile(ctx context.Context, p *models.Principal, companyID string, req *CompanyFileRequest) (*models.CompanyFile, error)
	ListCompanyFiles(ctx context.Context, companyID string) ([]models.CompanyFile, error)
	DeleteCompanyFile(ctx context.Context, p *models.Principal, id string) error
}

// CompanyRequest is used for both create and full update
type CompanyRequest struct {
	Name               string   `json:"name"`
	ContactPerson      string   `json:"contactPerson"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Address            string   `json:"address"`
	NotificationEmails []string `json:"notificationEmails"`
}

// CompanyFileRequest links a document to a company
type CompanyFileRequest struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	DriveItemID *string `json:"driveItemId,omitempty"`
}

// BranchService handles branch offices
type BranchService interface {
	CreateBranch(ctx context.Context, p *models.Principal, req *BranchRequest) (*models.Branch, error)
	GetBranch(ctx context.Context, id string) (*models.Branch, error)
	ListBranches(ctx context.Context, filter *models.ListFilter) (*models.Page[models.Branch], error)
	UpdateBranch(ctx context.Context, p *models.Principal, id string, req *BranchRequest) (*models.Branch, error)
	DeleteBranch(ctx context.Context, p *models.Principal, id string) error
}

// BranchRequest is used for both create and full update
type BranchRequest struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}
