package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// ApplicationService handles title file business logic.
// Non-admin principals only see applications of their assigned companies.
type ApplicationService interface {
	// CreateApplication creates an application, generating a file number when none is given
	CreateApplication(ctx context.Context, p *models.Principal, req *CreateApplicationRequest) (*models.Application, error)

	// GetApplication returns ErrNotFound for deleted or out-of-scope applications
	GetApplication(ctx context.Context, p *models.Principal, id string) (*models.Application, error)

	// ListApplications returns an empty page without querying when the caller has no companies
	ListApplications(ctx context.Context, p *models.Principal, filter *models.ApplicationFilter) (*models.Page[models.Application], error)

	UpdateApplication(ctx context.Context, p *models.Principal, id string, req *UpdateApplicationRequest) (*models.Application, error)
	UpdateStatus(ctx context.Context, p *models.Principal, id string, status models.ApplicationStatus) (*models.Application, error)

	// DeleteApplication soft-deletes by setting status to deleted
	DeleteApplication(ctx context.Context, p *models.Principal, id string) error
}

// CreateApplicationRequest represents an application creation request
type CreateApplicationRequest struct {
	FileNumber      string                   `json:"fileNumber,omitempty"` // Generated when empty
	Status          models.ApplicationStatus `json:"status,omitempty"`     // Defaults to Login
	CompanyName     string                   `json:"companyName"`
	BranchName      string                   `json:"branchName"`
	ApplicantName   string                   `json:"applicantName"`
	OwnerName       string                   `json:"ownerName"`
	PropertyAddress string                   `json:"propertyAddress"`
	Remarks         *string                  `json:"remarks,omitempty"`

	// DriveToken enables best-effort creation of the application's cloud folder
	DriveToken string `json:"-"`
}

// UpdateApplicationRequest is a partial update; nil fields are left unchanged
type UpdateApplicationRequest struct {
	FileNumber      *string `json:"fileNumber,omitempty"`
	CompanyName     *string `json:"companyName,omitempty"`
	BranchName      *string `json:"branchName,omitempty"`
	ApplicantName   *string `json:"applicantName,omitempty"`
	OwnerName       *string `json:"ownerName,omitempty"`
	PropertyAddress *string `json:"propertyAddress,omitempty"`
	Remarks         *string `json:"remarks,omitempty"`

	// ClearRemarks sets remarks to NULL; Remarks is ignored when set
	ClearRemarks bool `json:"-"`
}

// QueryService handles queries raised against applications
type QueryService interface {
	// RaiseQuery opens a query and moves the application to the Query status
	RaiseQuery(ctx context.Context, p *models.Principal, applicationID string, req *RaiseQueryRequest) (*models.Query, error)
	ListQueries(ctx context.Context, p *models.Principal, applicationID string) ([]models.Query, error)
	ResolveQuery(ctx context.Context, p *models.Principal, id string) (*models.Query, error)

	// UnresolveQuery reopens a query and clears resolvedBy and resolvedDate
	UnresolveQuery(ctx context.Context, p *models.Principal, id string) (*models.Query, error)
}

// RaiseQueryRequest represents a query creation request
type RaiseQueryRequest struct {
	Message string `json:"message"`
}

// FileNumberGenerator produces unique application file numbers
type FileNumberGenerator interface {
	// Next never fails; after repeated collisions it falls back to a random suffix
	Next(ctx context.Context) string
}
