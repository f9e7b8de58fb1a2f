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
)

// PermissionCatalog is the set of permission slugs known to the server
type PermissionCatalog interface {
	Groups() []models.PermissionGroup
	Unknown(slugs []string) []string
}

// roleService implements the RoleService interface
type roleService struct {
	roleRepo  repositories.RoleRepository
	catalog   PermissionCatalog
	txManager repositories.TransactionManager
	audit     services.AuditService
	logger    *slog.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo repositories.RoleRepository,
	catalog PermissionCatalog,
	txManager repositories.TransactionManager,
	audit services.AuditService,
	logger *slog.Logger,
) services.RoleService {
	return &roleService{
		roleRepo:  roleRepo,
		catalog:   catalog,
		txManager: txManager,
		audit:     audit,
		logger:    logger,
	}
}

// CreateRole creates a role with its permission set
func (s *roleService) CreateRole(ctx context.Context, p *models.Principal, req *services.RoleRequest) (*models.Role, error) {
	if err := s.validateRoleRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &models.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.roleRepo.Create(ctx, role); err != nil {
			return err
		}
		return s.roleRepo.SetPermissions(ctx, role.ID, role.Permissions)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role created", "id", role.ID, "name", role.Name, "permissions", len(role.Permissions))
	s.audit.Record(ctx, p, models.AuditCreate, "role", role.ID, map[string]interface{}{
		"name":        role.Name,
		"permissions": role.Permissions,
	})
	return role, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*models.Role, error) {
	return s.roleRepo.GetByID(ctx, id)
}

func (s *roleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roleRepo.List(ctx)
}

// UpdateRole replaces name, description and permissions. The admin role keeps its name.
func (s *roleService) UpdateRole(ctx context.Context, p *models.Principal, id string, req *services.RoleRequest) (*models.Role, error) {
	if err := s.validateRoleRequest(req); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdminRole(role) && !strings.EqualFold(req.Name, role.Name) {
		return nil, fmt.Errorf("%w: the %s role cannot be renamed", domain.ErrValidation, role.Name)
	}

	role.Name = req.Name
	role.Description = req.Description
	role.Permissions = req.Permissions
	role.UpdatedAt = time.Now()

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.roleRepo.Update(ctx, role); err != nil {
			return err
		}
		return s.roleRepo.SetPermissions(ctx, id, role.Permissions)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role updated", "id", id, "permissions", len(role.Permissions))
	s.audit.Record(ctx, p, models.AuditUpdate, "role", id, map[string]interface{}{
		"name":        role.Name,
		"permissions": role.Permissions,
	})
	return role, nil
}

// DeleteRole deletes an unassigned role
func (s *roleService) DeleteRole(ctx context.Context, p *models.Principal, id string) error {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if isAdminRole(role) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("the %s role cannot be deleted", role.Name),
			ResourceType: "role",
			ResourceID:   id,
		}
	}
	if role.UserCount > 0 {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("role is assigned to %d user(s)", role.UserCount),
			ResourceType: "role",
			ResourceID:   id,
		}
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("role deleted", "id", id, "name", role.Name)
	s.audit.Record(ctx, p, models.AuditDelete, "role", id, map[string]interface{}{"name": role.Name})
	return nil
}

// ListPermissions returns the catalog grouped by module
func (s *roleService) ListPermissions(ctx context.Context) []models.PermissionGroup {
	return s.catalog.Groups()
}

func (s *roleService) validateRoleRequest(req *services.RoleRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Permissions = dedupe(req.Permissions)

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.Description, validation.Length(0, 1000)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if unknown := s.catalog.Unknown(req.Permissions); len(unknown) > 0 {
		return fmt.Errorf("%w: unknown permissions: %s", domain.ErrValidation, strings.Join(unknown, ", "))
	}
	return nil
}

func isAdminRole(r *models.Role) bool {
	return strings.EqualFold(r.Name, models.AdminRoleName)
}
