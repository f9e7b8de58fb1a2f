package services

import (
	"context"
	"io"

	"titledesk/internal/domain/models"
)

// DocumentService handles files stored in an application's cloud folder
type DocumentService interface {
	UploadDocument(ctx context.Context, p *models.Principal, req *UploadDocumentRequest) (*models.ApplicationDocument, error)

	// GenerateDocument copies a template's content into the application folder under a new name
	GenerateDocument(ctx context.Context, p *models.Principal, req *GenerateDocumentRequest) (*models.ApplicationDocument, error)
	ListDocuments(ctx context.Context, p *models.Principal, applicationID string) ([]models.ApplicationDocument, error)

	// DeleteDocument removes the record; the cloud item is removed best-effort when a token is given
	DeleteDocument(ctx context.Context, p *models.Principal, id, driveToken string) error

	// UploadPDF stores a PDF under the financial-year folder convention and records it
	UploadPDF(ctx context.Context, p *models.Principal, req *UploadDocumentRequest) (*models.ApplicationPDFUpload, error)
	ListPDFUploads(ctx context.Context, p *models.Principal, applicationID string) ([]models.ApplicationPDFUpload, error)
}

// UploadDocumentRequest carries one multipart file
type UploadDocumentRequest struct {
	ApplicationID string
	FileName      string
	ContentType   string
	Size          int64
	Content       io.Reader
	DriveToken    string
}

// GenerateDocumentRequest represents a document generation request
type GenerateDocumentRequest struct {
	ApplicationID  string `json:"-"`
	TemplateItemID string `json:"templateItemId"`
	Name           string `json:"name,omitempty"` // Defaults to "{fileNumber} - {template name}"
	DriveToken     string `json:"-"`
}
