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

// branchService implements the BranchService interface
type branchService struct {
	branchRepo repositories.BranchRepository
	audit      services.AuditService
	logger     *slog.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(branchRepo repositories.BranchRepository, audit services.AuditService, logger *slog.Logger) services.BranchService {
	return &branchService{
		branchRepo: branchRepo,
		audit:      audit,
		logger:     logger,
	}
}

func (s *branchService) CreateBranch(ctx context.Context, p *models.Principal, req *services.BranchRequest) (*models.Branch, error) {
	if err := validateBranchRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	branch := &models.Branch{
		Name:          req.Name,
		Code:          req.Code,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return nil, err
	}

	s.logger.Info("branch created", "id", branch.ID, "name", branch.Name)
	s.audit.Record(ctx, p, models.AuditCreate, "branch", branch.ID, map[string]interface{}{"name": branch.Name})
	return branch, nil
}

func (s *branchService) GetBranch(ctx context.Context, id string) (*models.Branch, error) {
	return s.branchRepo.GetByID(ctx, id)
}

func (s *branchService) ListBranches(ctx context.Context, filter *models.ListFilter) (*models.Page[models.Branch], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)

	items, total, err := s.branchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return &models.Page[models.Branch]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *branchService) UpdateBranch(ctx context.Context, p *models.Principal, id string, req *services.BranchRequest) (*models.Branch, error) {
	if err := validateBranchRequest(req); err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	branch.Name = req.Name
	branch.Code = req.Code
	branch.ContactPerson = req.ContactPerson
	branch.Email = req.Email
	branch.Phone = req.Phone
	branch.Address = req.Address
	branch.UpdatedAt = time.Now()

	if err := s.branchRepo.Update(ctx, branch); err != nil {
		return nil, err
	}

	s.logger.Info("branch updated", "id", id)
	s.audit.Record(ctx, p, models.AuditUpdate, "branch", id, map[string]interface{}{"name": branch.Name})
	return branch, nil
}

func (s *branchService) DeleteBranch(ctx context.Context, p *models.Principal, id string) error {
	if err := s.branchRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("branch deleted", "id", id)
	s.audit.Record(ctx, p, models.AuditDelete, "branch", id, nil)
	return nil
}

func validateBranchRequest(req *services.BranchRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.ContactPerson = strings.TrimSpace(req.ContactPerson)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)

	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.Code, validation.Length(0, 20), is.Alphanumeric),
		validation.Field(&req.ContactPerson, validation.Length(0, config.MaxNameLength)),
		validation.Field(&req.Email, is.EmailFormat),
		validation.Field(&req.Phone, validation.Length(0, 32)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
