package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	"titledesk/internal/metrics"
	"titledesk/internal/onedrive"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo      repositories.ApplicationDocumentRepository
	applications services.ApplicationService
	storage      services.CloudStorage
	audit        services.AuditService
	driveRoot    string
	logger       *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.ApplicationDocumentRepository,
	applications services.ApplicationService,
	storage services.CloudStorage,
	audit services.AuditService,
	driveRoot string,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:      docRepo,
		applications: applications,
		storage:      storage,
		audit:        audit,
		driveRoot:    driveRoot,
		logger:       logger,
	}
}

var errDriveTokenMissing = fmt.Errorf("%w: X-OneDrive-Token header is required", domain.ErrValidation)

// UploadDocument stores a file in the application's folder and records it
func (s *documentService) UploadDocument(ctx context.Context, p *models.Principal, req *services.UploadDocumentRequest) (*models.ApplicationDocument, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	app, err := s.applications.GetApplication(ctx, p, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	item, _, err := s.store(ctx, req.DriveToken, app, req.FileName, req.Content, req.Size, req.ContentType)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, p, app, item, req.DriveToken, "uploaded")
}

// GenerateDocument downloads a template and uploads its content into the application folder
func (s *documentService) GenerateDocument(ctx context.Context, p *models.Principal, req *services.GenerateDocumentRequest) (*models.ApplicationDocument, error) {
	req.TemplateItemID = strings.TrimSpace(req.TemplateItemID)
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.TemplateItemID, validation.Required),
		validation.Field(&req.Name, validation.Length(0, config.MaxNameLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.DriveToken == "" {
		return nil, errDriveTokenMissing
	}

	app, err := s.applications.GetApplication(ctx, p, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.storage.GetItem(ctx, req.DriveToken, req.TemplateItemID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl.IsFolder {
		return nil, fmt.Errorf("%w: template %q is a folder", domain.ErrValidation, tmpl.Name)
	}
	if tmpl.Size > config.MaxUploadSize {
		return nil, fmt.Errorf("%w: template exceeds %d bytes", domain.ErrValidation, config.MaxUploadSize)
	}

	content, err := s.storage.Download(ctx, req.DriveToken, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("download template: %w", err)
	}
	defer content.Body.Close()

	data, err := io.ReadAll(io.LimitReader(content.Body, config.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if len(data) > config.MaxUploadSize {
		return nil, fmt.Errorf("%w: template exceeds %d bytes", domain.ErrValidation, config.MaxUploadSize)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s - %s", app.FileNumber, tmpl.Name)
	} else if path.Ext(name) == "" {
		name += path.Ext(tmpl.Name)
	}

	mimeType := tmpl.MimeType
	if mimeType == "" {
		mimeType = content.ContentType
	}

	item, _, err := s.store(ctx, req.DriveToken, app, name, bytes.NewReader(data), int64(len(data)), mimeType)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, p, app, item, req.DriveToken, "generated")
}

// store uploads into the application folder and returns the item and folder path
func (s *documentService) store(ctx context.Context, token string, app *models.Application, name string, content io.Reader, size int64, contentType string) (*models.DriveItem, string, error) {
	folderPath := onedrive.FolderPathFor(s.driveRoot, app.CreatedAt, app.FileNumber)
	folder, err := s.storage.EnsureFolderPath(ctx, token, folderPath)
	if err != nil {
		return nil, "", fmt.Errorf("prepare folder %s: %w", folderPath, err)
	}

	item, err := s.storage.UploadFile(ctx, token, folder.ID, name, content, size, contentType)
	if err != nil {
		return nil, "", fmt.Errorf("upload %s: %w", name, err)
	}
	if item.MimeType == "" {
		item.MimeType = contentType
	}
	return item, folderPath, nil
}

// record persists an uploaded item, removing it from the drive if the insert fails
func (s *documentService) record(ctx context.Context, p *models.Principal, app *models.Application, item *models.DriveItem, token, how string) (*models.ApplicationDocument, error) {
	uploadedBy := p.User.ID
	doc := &models.ApplicationDocument{
		ApplicationID: app.ID,
		Name:          item.Name,
		DriveItemID:   item.ID,
		WebURL:        item.WebURL,
		MimeType:      item.MimeType,
		Size:          item.Size,
		UploadedBy:    &uploadedBy,
		CreatedAt:     time.Now(),
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		s.discard(ctx, token, item.ID)
		return nil, err
	}

	s.logger.Info("document "+how, "id", doc.ID, "application_id", app.ID, "name", doc.Name, "size", doc.Size)
	s.audit.Record(ctx, p, models.AuditCreate, "application_document", doc.ID, map[string]interface{}{
		"applicationId": app.ID,
		"name":          doc.Name,
		"source":        how,
	})
	return doc, nil
}

func (s *documentService) discard(ctx context.Context, token, itemID string) {
	if err := s.storage.DeleteItem(ctx, token, itemID); err != nil {
		metrics.RecordPeripheralFailure("drive_cleanup")
		s.logger.Warn("failed to remove orphaned drive item", "item_id", itemID, "error", err)
	}
}

// ListDocuments lists documents of a visible application
func (s *documentService) ListDocuments(ctx context.Context, p *models.Principal, applicationID string) ([]models.ApplicationDocument, error) {
	if _, err := s.applications.GetApplication(ctx, p, applicationID); err != nil {
		return nil, err
	}
	return s.docRepo.ListByApplication(ctx, applicationID)
}

// DeleteDocument removes the record, then the drive item when a token is available
func (s *documentService) DeleteDocument(ctx context.Context, p *models.Principal, id, driveToken string) error {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.applications.GetApplication(ctx, p, doc.ApplicationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return err
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	if driveToken != "" && doc.DriveItemID != "" {
		s.discard(ctx, driveToken, doc.DriveItemID)
	}

	s.logger.Info("document deleted", "id", id, "application_id", doc.ApplicationID)
	s.audit.Record(ctx, p, models.AuditDelete, "application_document", id, map[string]interface{}{
		"applicationId": doc.ApplicationID,
		"name":          doc.Name,
	})
	return nil
}

// UploadPDF stores a PDF under {root}/FY {start}-{end}/{MM-Month}/{fileNumber} and records it
func (s *documentService) UploadPDF(ctx context.Context, p *models.Principal, req *services.UploadDocumentRequest) (*models.ApplicationPDFUpload, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}
	if !strings.EqualFold(path.Ext(req.FileName), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are accepted", domain.ErrValidation)
	}

	app, err := s.applications.GetApplication(ctx, p, req.ApplicationID)
	if err != nil {
		return nil, err
	}

	item, folderPath, err := s.store(ctx, req.DriveToken, app, req.FileName, req.Content, req.Size, "application/pdf")
	if err != nil {
		return nil, err
	}

	uploadedBy := p.User.ID
	upload := &models.ApplicationPDFUpload{
		ApplicationID: app.ID,
		FileNumber:    app.FileNumber,
		FolderPath:    folderPath,
		FileName:      item.Name,
		DriveItemID:   item.ID,
		WebURL:        item.WebURL,
		UploadedBy:    &uploadedBy,
		CreatedAt:     time.Now(),
	}
	if err := s.docRepo.CreatePDFUpload(ctx, upload); err != nil {
		s.discard(ctx, req.DriveToken, item.ID)
		return nil, err
	}

	s.logger.Info("pdf uploaded", "id", upload.ID, "application_id", app.ID, "folder", folderPath)
	s.audit.Record(ctx, p, models.AuditCreate, "application_pdf_upload", upload.ID, map[string]interface{}{
		"applicationId": app.ID,
		"folderPath":    folderPath,
	})
	return upload, nil
}

// ListPDFUploads lists PDF uploads of a visible application
func (s *documentService) ListPDFUploads(ctx context.Context, p *models.Principal, applicationID string) ([]models.ApplicationPDFUpload, error) {
	if _, err := s.applications.GetApplication(ctx, p, applicationID); err != nil {
		return nil, err
	}
	return s.docRepo.ListPDFUploads(ctx, applicationID)
}

func validateUpload(req *services.UploadDocumentRequest) error {
	req.FileName = strings.TrimSpace(path.Base(strings.ReplaceAll(req.FileName, `\`, "/")))
	err := validation.ValidateStruct(req,
		validation.Field(&req.ApplicationID, validation.Required),
		validation.Field(&req.FileName, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.Size, validation.Required, validation.Max(int64(config.MaxUploadSize))),
		validation.Field(&req.Content, validation.NotNil),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.DriveToken == "" {
		return errDriveTokenMissing
	}
	return nil
}
