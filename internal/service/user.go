package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"titledesk/internal/auth"
	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
)

// userService implements the UserService interface
type userService struct {
	userRepo  repositories.UserRepository
	roleRepo  repositories.RoleRepository
	catalog   PermissionCatalog
	txManager repositories.TransactionManager
	audit     services.AuditService
	logger    *slog.Logger
}

// NewUserService creates a new user administration service
func NewUserService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	catalog PermissionCatalog,
	txManager repositories.TransactionManager,
	audit services.AuditService,
	logger *slog.Logger,
) services.UserService {
	return &userService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		catalog:   catalog,
		txManager: txManager,
		audit:     audit,
		logger:    logger,
	}
}

// CreateUser creates a user with a role and company scope
func (s *userService) CreateUser(ctx context.Context, p *models.Principal, req *services.CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.RoleID = strings.TrimSpace(req.RoleID)
	if req.Status == "" {
		req.Status = models.UserActive
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Phone, validation.Length(0, 32)),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 72)),
		validation.Field(&req.RoleID, validation.Required, is.UUID),
		validation.Field(&req.Status, validation.In(models.UserActive, models.UserInactive)),
		validation.Field(&req.AssignedCompanies, validation.Each(is.UUID)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.requireRole(ctx, req.RoleID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	roleID := req.RoleID
	now := time.Now()
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		RoleID:       &roleID,
		Status:       req.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		return s.userRepo.SetAssignedCompanies(ctx, user.ID, dedupe(req.AssignedCompanies))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "id", user.ID, "email", user.Email, "role_id", roleID)
	s.audit.Record(ctx, p, models.AuditCreate, "user", user.ID, map[string]interface{}{
		"email":  user.Email,
		"roleId": roleID,
	})
	return s.userRepo.GetByID(ctx, user.ID)
}

// GetUser retrieves a user with role and company scope
func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns a page of users
func (s *userService) ListUsers(ctx context.Context, filter *models.UserFilter) (*models.Page[models.User], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)
	if filter.Status != "" && filter.Status != models.UserActive && filter.Status != models.UserInactive {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}

	items, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &models.Page[models.User]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateUser applies the non-nil fields of req. Users cannot deactivate themselves.
func (s *userService) UpdateUser(ctx context.Context, p *models.Principal, id string, req *services.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	roleChanged := false
	if req.RoleID != nil {
		roleID := strings.TrimSpace(*req.RoleID)
		roleChanged = user.RoleID == nil || *user.RoleID != roleID
		user.RoleID = &roleID
	}

	if err := validation.ValidateStruct(user,
		validation.Field(&user.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&user.Email, validation.Required, is.EmailFormat),
		validation.Field(&user.Phone, validation.Length(0, 32)),
		validation.Field(&user.Status, validation.Required, validation.In(models.UserActive, models.UserInactive)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Password != nil {
		if err := validation.Validate(*req.Password, validation.Length(config.MinPasswordLength, 72)); err != nil {
			return nil, fmt.Errorf("%w: password: %v", domain.ErrValidation, err)
		}
	}
	if req.AssignedCompanies != nil {
		if err := validation.Validate(*req.AssignedCompanies, validation.Each(is.UUID)); err != nil {
			return nil, fmt.Errorf("%w: assignedCompanies: %v", domain.ErrValidation, err)
		}
	}

	if p.User.ID == id && user.Status != models.UserActive {
		return nil, fmt.Errorf("%w: you cannot deactivate your own account", domain.ErrValidation)
	}
	if roleChanged {
		if err := s.requireRole(ctx, *user.RoleID); err != nil {
			return nil, err
		}
	}

	var passwordHash string
	if req.Password != nil {
		if passwordHash, err = auth.HashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	user.UpdatedAt = time.Now()
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		if req.AssignedCompanies != nil {
			if err := s.userRepo.SetAssignedCompanies(ctx, id, dedupe(*req.AssignedCompanies)); err != nil {
				return err
			}
		}
		if passwordHash != "" {
			return s.userRepo.SetPassword(ctx, id, passwordHash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "id", id, "role_changed", roleChanged, "password_changed", passwordHash != "")
	s.audit.Record(ctx, p, models.AuditUpdate, "user", id, map[string]interface{}{
		"email":           user.Email,
		"status":          user.Status,
		"roleChanged":     roleChanged,
		"passwordChanged": passwordHash != "",
	})
	return s.userRepo.GetByID(ctx, id)
}

// DeleteUser removes a user. Users cannot delete themselves.
func (s *userService) DeleteUser(ctx context.Context, p *models.Principal, id string) error {
	if p.User.ID == id {
		return fmt.Errorf("%w: you cannot delete your own account", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "id", id, "email", user.Email)
	s.audit.Record(ctx, p, models.AuditDelete, "user", id, map[string]interface{}{"email": user.Email})
	return nil
}

// ForceLogout invalidates every token issued to the user up to now
func (s *userService) ForceLogout(ctx context.Context, p *models.Principal, id string) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.SetForcedLogout(ctx, id, time.Now()); err != nil {
		return err
	}

	s.logger.Info("user forced logout", "id", id)
	s.audit.Record(ctx, p, models.AuditUpdate, "user", id, map[string]interface{}{"forcedLogout": true})
	return nil
}

// GetUserPermissions returns the user's overrides and effective permission set
func (s *userService) GetUserPermissions(ctx context.Context, id string) (*services.UserPermissions, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	overrides, err := s.roleRepo.UserPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	effective, err := s.roleRepo.EffectivePermissions(ctx, id)
	if err != nil {
		return nil, err
	}

	return &services.UserPermissions{
		UserID:    id,
		Role:      user.RoleName,
		Overrides: nonNil(overrides),
		Effective: nonNil(effective),
	}, nil
}

// SetUserPermissions replaces the user's overrides
func (s *userService) SetUserPermissions(ctx context.Context, p *models.Principal, id string, slugs []string) (*services.UserPermissions, error) {
	slugs = dedupe(slugs)
	if unknown := s.catalog.Unknown(slugs); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown permissions: %s", domain.ErrValidation, strings.Join(unknown, ", "))
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.roleRepo.SetUserPermissions(ctx, id, slugs); err != nil {
		return nil, err
	}

	s.logger.Info("user permissions updated", "id", id, "count", len(slugs))
	s.audit.Record(ctx, p, models.AuditUpdate, "user_permissions", id, map[string]interface{}{"permissions": slugs})
	return s.GetUserPermissions(ctx, id)
}

// requireRole turns a missing role into a validation error
func (s *userService) requireRole(ctx context.Context, roleID string) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: role %s does not exist", domain.ErrValidation, roleID)
		}
		return err
	}
	return nil
}

// dedupe trims, drops empties and sorts
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
