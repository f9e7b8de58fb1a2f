package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
)

// companyService implements the CompanyService interface
type companyService struct {
	companyRepo repositories.CompanyRepository
	audit       services.AuditService
	logger      *slog.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(companyRepo repositories.CompanyRepository, audit services.AuditService, logger *slog.Logger) services.CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		audit:       audit,
		logger:      logger,
	}
}

// CreateCompany creates a new company
func (s *companyService) CreateCompany(ctx context.Context, p *models.Principal, req *services.CompanyRequest) (*models.Company, error) {
	if err := validateCompanyRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	company := &models.Company{
		Name:               req.Name,
		ContactPerson:      req.ContactPerson,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		NotificationEmails: req.NotificationEmails,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info("company created", "id", company.ID, "name", company.Name)
	s.audit.Record(ctx, p, models.AuditCreate, "company", company.ID, map[string]interface{}{"name": company.Name})
	return company, nil
}

// GetCompany retrieves a company
func (s *companyService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	return s.companyRepo.GetByID(ctx, id)
}

// ListCompanies returns a page of companies
func (s *companyService) ListCompanies(ctx context.Context, filter *models.ListFilter) (*models.Page[models.Company], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)

	items, total, err := s.companyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return &models.Page[models.Company]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateCompany replaces the company's editable fields
func (s *companyService) UpdateCompany(ctx context.Context, p *models.Principal, id string, req *services.CompanyRequest) (*models.Company, error) {
	if err := validateCompanyRequest(req); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldName := company.Name
	company.Name = req.Name
	company.ContactPerson = req.ContactPerson
	company.Email = req.Email
	company.Phone = req.Phone
	company.Address = req.Address
	company.NotificationEmails = req.NotificationEmails
	company.UpdatedAt = time.Now()

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, err
	}

	if oldName != company.Name {
		// Applications reference companies by name
		s.logger.Warn("company renamed", "id", id, "from", oldName, "to", company.Name)
	}
	s.logger.Info("company updated", "id", id)
	s.audit.Record(ctx, p, models.AuditUpdate, "company", id, map[string]interface{}{"name": company.Name})
	return company, nil
}

// DeleteCompany hard-deletes a company
func (s *companyService) DeleteCompany(ctx context.Context, p *models.Principal, id string) error {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("company deleted", "id", id, "name", company.Name)
	s.audit.Record(ctx, p, models.AuditDelete, "company", id, map[string]interface{}{"name": company.Name})
	return nil
}

// AddCompanyFile links a document URL to a company
func (s *companyService) AddCompanyFile(ctx context.Context, p *models.Principal, companyID string, req *services.CompanyFileRequest) (*models.CompanyFile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.URL = strings.TrimSpace(req.URL)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.URL, validation.Required, is.URL),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	createdBy := p.User.ID
	file := &models.CompanyFile{
		CompanyID:   companyID,
		Name:        req.Name,
		URL:         req.URL,
		DriveItemID: req.DriveItemID,
		CreatedBy:   &createdBy,
		CreatedAt:   time.Now(),
	}
	if err := s.companyRepo.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("company file added", "id", file.ID, "company_id", companyID)
	s.audit.Record(ctx, p, models.AuditCreate, "company_file", file.ID, map[string]interface{}{
		"companyId": companyID,
		"name":      file.Name,
	})
	return file, nil
}

// ListCompanyFiles lists documents linked to a company
func (s *companyService) ListCompanyFiles(ctx context.Context, companyID string) ([]models.CompanyFile, error) {
	if _, err := s.companyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}
	return s.companyRepo.ListFiles(ctx, companyID)
}

// DeleteCompanyFile removes a linked document
func (s *companyService) DeleteCompanyFile(ctx context.Context, p *models.Principal, id string) error {
	if err := s.companyRepo.DeleteFile(ctx, id); err != nil {
		return err
	}

	s.logger.Info("company file deleted", "id", id)
	s.audit.Record(ctx, p, models.AuditDelete, "company_file", id, nil)
	return nil
}

func validateCompanyRequest(req *services.CompanyRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactPerson = strings.TrimSpace(req.ContactPerson)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)

	emails := make([]string, 0, len(req.NotificationEmails))
	for _, e := range req.NotificationEmails {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	req.NotificationEmails = emails

	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.ContactPerson, validation.Length(0, config.MaxNameLength)),
		validation.Field(&req.Email, is.EmailFormat),
		validation.Field(&req.Phone, validation.Length(0, 32)),
		validation.Field(&req.NotificationEmails, validation.Each(is.EmailFormat)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
