package service

import (
	"context"
	"fmt"
	"log/slog"
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
	scopeauth "titledesk/internal/service/auth"
	"titledesk/internal/service/sanitizer"
)

const maxFileNumberLength = 50

// plainText strips markup from free-text fields before they are stored
var plainText = sanitizer.NewTextSanitizer()

func sanitizeRemarks(remarks *string) *string {
	if remarks == nil {
		return nil
	}
	clean := plainText.Sanitize(*remarks)
	return &clean
}

// applicationService implements the ApplicationService interface
type applicationService struct {
	appRepo     repositories.ApplicationRepository
	txManager   repositories.TransactionManager
	fileNumbers services.FileNumberGenerator
	settings    services.SettingsService
	scope       services.ScopeResolver
	storage     services.CloudStorage
	audit       services.AuditService
	driveRoot   string
	logger      *slog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	appRepo repositories.ApplicationRepository,
	txManager repositories.TransactionManager,
	fileNumbers services.FileNumberGenerator,
	settings services.SettingsService,
	scope services.ScopeResolver,
	storage services.CloudStorage,
	audit services.AuditService,
	driveRoot string,
	logger *slog.Logger,
) services.ApplicationService {
	return &applicationService{
		appRepo:     appRepo,
		txManager:   txManager,
		fileNumbers: fileNumbers,
		settings:    settings,
		scope:       scope,
		storage:     storage,
		audit:       audit,
		driveRoot:   driveRoot,
		logger:      logger,
	}
}

// CreateApplication creates an application. File number generation and the insert share
// one transaction holding the counter lock, so concurrent creations serialize.
func (s *applicationService) CreateApplication(ctx context.Context, p *models.Principal, req *services.CreateApplicationRequest) (*models.Application, error) {
	trimApplicationRequest(req)
	if req.Status == "" {
		req.Status = models.StatusLogin
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.scope.CanAccessCompany(ctx, p, req.CompanyName); err != nil {
		return nil, err
	}

	now := time.Now()
	createdBy := p.User.ID
	app := &models.Application{
		FileNumber:      req.FileNumber,
		Status:          req.Status,
		CompanyName:     req.CompanyName,
		BranchName:      req.BranchName,
		ApplicantName:   req.ApplicantName,
		OwnerName:       req.OwnerName,
		PropertyAddress: req.PropertyAddress,
		Remarks:         sanitizeRemarks(req.Remarks),
		CreatedBy:       &createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	generated := app.FileNumber == ""
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if generated {
			app.FileNumber = s.fileNumbers.Next(ctx)
		} else {
			exists, err := s.appRepo.FileNumberExists(ctx, app.FileNumber)
			if err != nil {
				return err
			}
			if exists {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("file number '%s' already exists", app.FileNumber),
					ResourceType: "application",
				}
			}
		}
		return s.appRepo.Create(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	if generated {
		// The counter moved; keep the cached settings in step
		if _, err := s.settings.Reload(ctx); err != nil {
			s.logger.Warn("failed to refresh settings after file number", "error", err)
		}
	}

	s.logger.Info("application created",
		"id", app.ID,
		"file_number", app.FileNumber,
		"company", app.CompanyName,
		"generated", generated,
	)
	s.audit.Record(ctx, p, models.AuditCreate, "application", app.ID, map[string]interface{}{
		"fileNumber": app.FileNumber,
		"company":    app.CompanyName,
	})

	if req.DriveToken != "" {
		s.createFolder(ctx, req.DriveToken, app)
	}

	return app, nil
}

// createFolder creates the application's cloud folder. Failures never fail the request.
func (s *applicationService) createFolder(ctx context.Context, token string, app *models.Application) {
	path := onedrive.FolderPathFor(s.driveRoot, app.CreatedAt, app.FileNumber)
	if _, err := s.storage.EnsureFolderPath(ctx, token, path); err != nil {
		metrics.RecordPeripheralFailure("drive_folder")
		s.logger.Warn("failed to create application folder", "id", app.ID, "path", path, "error", err)
		return
	}
	s.logger.Debug("application folder ready", "id", app.ID, "path", path)
}

// GetApplication hides deleted and out-of-scope applications behind ErrNotFound
func (s *applicationService) GetApplication(ctx context.Context, p *models.Principal, id string) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.IsDeleted() {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}

	names, err := s.scope.CompanyNames(ctx, p)
	if err != nil {
		return nil, err
	}
	if !scopeauth.InScope(names, app.CompanyName) {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return app, nil
}

// ListApplications lists applications visible to the principal
func (s *applicationService) ListApplications(ctx context.Context, p *models.Principal, filter *models.ApplicationFilter) (*models.Page[models.Application], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)

	if filter.Status != "" && !models.IsWorkflowStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}

	names, err := s.scope.CompanyNames(ctx, p)
	if err != nil {
		return nil, err
	}
	if names != nil && len(names) == 0 {
		return models.EmptyPage[models.Application](filter.Page, filter.Limit), nil
	}
	filter.CompanyNames = names

	items, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return &models.Page[models.Application]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateApplication applies the non-nil fields of req
func (s *applicationService) UpdateApplication(ctx context.Context, p *models.Principal, id string, req *services.UpdateApplicationRequest) (*models.Application, error) {
	app, err := s.GetApplication(ctx, p, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	apply := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed != *dst {
			changed[field] = trimmed
		}
		*dst = trimmed
	}
	apply("fileNumber", &app.FileNumber, req.FileNumber)
	apply("companyName", &app.CompanyName, req.CompanyName)
	apply("branchName", &app.BranchName, req.BranchName)
	apply("applicantName", &app.ApplicantName, req.ApplicantName)
	apply("ownerName", &app.OwnerName, req.OwnerName)
	apply("propertyAddress", &app.PropertyAddress, req.PropertyAddress)
	switch {
	case req.ClearRemarks:
		app.Remarks = nil
		changed["remarks"] = nil
	case req.Remarks != nil:
		remarks := plainText.Sanitize(*req.Remarks)
		app.Remarks = &remarks
		changed["remarks"] = remarks
	}

	if err := validateApplication(app); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if _, ok := changed["companyName"]; ok {
		if err := s.scope.CanAccessCompany(ctx, p, app.CompanyName); err != nil {
			return nil, err
		}
	}

	app.UpdatedAt = time.Now()
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("application updated", "id", app.ID, "fields", len(changed))
	s.audit.Record(ctx, p, models.AuditUpdate, "application", app.ID, changed)
	return app, nil
}

// UpdateStatus moves the application to a workflow status
func (s *applicationService) UpdateStatus(ctx context.Context, p *models.Principal, id string, status models.ApplicationStatus) (*models.Application, error) {
	if !models.IsWorkflowStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	app, err := s.GetApplication(ctx, p, id)
	if err != nil {
		return nil, err
	}

	from := app.Status
	if err := s.appRepo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	app.Status = status
	app.UpdatedAt = time.Now()

	s.logger.Info("application status changed", "id", id, "from", from, "to", status)
	s.audit.Record(ctx, p, models.AuditStatus, "application", id, map[string]interface{}{
		"from": from,
		"to":   status,
	})
	return app, nil
}

// DeleteApplication soft-deletes the application
func (s *applicationService) DeleteApplication(ctx context.Context, p *models.Principal, id string) error {
	app, err := s.GetApplication(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.appRepo.SetStatus(ctx, id, models.StatusDeleted); err != nil {
		return err
	}

	s.logger.Info("application deleted", "id", id, "file_number", app.FileNumber)
	s.audit.Record(ctx, p, models.AuditDelete, "application", id, map[string]interface{}{
		"fileNumber": app.FileNumber,
	})
	return nil
}

func trimApplicationRequest(req *services.CreateApplicationRequest) {
	req.FileNumber = strings.TrimSpace(req.FileNumber)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.BranchName = strings.TrimSpace(req.BranchName)
	req.ApplicantName = strings.TrimSpace(req.ApplicantName)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	req.PropertyAddress = strings.TrimSpace(req.PropertyAddress)
}

func (s *applicationService) validateCreateRequest(req *services.CreateApplicationRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FileNumber, validation.Length(0, maxFileNumberLength)),
		validation.Field(&req.Status, validation.By(workflowStatusRule)),
		validation.Field(&req.CompanyName, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.BranchName, validation.Length(0, config.MaxNameLength)),
		validation.Field(&req.ApplicantName, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.OwnerName, validation.Length(0, config.MaxNameLength)),
		validation.Field(&req.PropertyAddress, validation.Length(0, 2000)),
	)
}

func validateApplication(app *models.Application) error {
	return validation.ValidateStruct(app,
		validation.Field(&app.FileNumber, validation.Required, validation.Length(1, maxFileNumberLength)),
		validation.Field(&app.CompanyName, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&app.BranchName, validation.Length(0, config.MaxNameLength)),
		validation.Field(&app.ApplicantName, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&app.OwnerName, validation.Length(0, config.MaxNameLength)),
		validation.Field(&app.PropertyAddress, validation.Length(0, 2000)),
	)
}

func workflowStatusRule(value interface{}) error {
	status, _ := value.(models.ApplicationStatus)
	if status != "" && !models.IsWorkflowStatus(status) {
		return fmt.Errorf("must be one of %v", models.WorkflowStatuses)
	}
	return nil
}
