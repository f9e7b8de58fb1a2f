package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// UserService handles administration of user accounts
type UserService interface {
	CreateUser(ctx context.Context, p *models.Principal, req *CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter *models.UserFilter) (*models.Page[models.User], error)
	UpdateUser(ctx context.Context, p *models.Principal, id string, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, p *models.Principal, id string) error

	// ForceLogout invalidates every token issued to the user before now
	ForceLogout(ctx context.Context, p *models.Principal, id string) error

	GetUserPermissions(ctx context.Context, id string) (*UserPermissions, error)

	// SetUserPermissions replaces the user-specific permission overrides
	SetUserPermissions(ctx context.Context, p *models.Principal, id string, slugs []string) (*UserPermissions, error)
}

// CreateUserRequest represents an admin user creation request
type CreateUserRequest struct {
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	Password          string            `json:"password"`
	RoleID            string            `json:"roleId"`
	Status            models.UserStatus `json:"status,omitempty"` // Defaults to active
	AssignedCompanies []string          `json:"assignedCompanies"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged
type UpdateUserRequest struct {
	Name              *string            `json:"name,omitempty"`
	Email             *string            `json:"email,omitempty"`
	Phone             *string            `json:"phone,omitempty"`
	RoleID            *string            `json:"roleId,omitempty"`
	Status            *models.UserStatus `json:"status,omitempty"`
	AssignedCompanies *[]string          `json:"assignedCompanies,omitempty"`
	Password          *string            `json:"password,omitempty"`
}

// UserPermissions shows a user's overrides next to the effective set
type UserPermissions struct {
	UserID    string   `json:"userId"`
	Role      string   `json:"role"`
	Overrides []string `json:"overrides"`
	Effective []string `json:"effective"`
}

// RoleService handles roles and the permission catalog
type RoleService interface {
	CreateRole(ctx context.Context, p *models.Principal, req *RoleRequest) (*models.Role, error)
	GetRole(ctx context.Context, id string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	UpdateRole(ctx context.Context, p *models.Principal, id string, req *RoleRequest) (*models.Role, error)

	// DeleteRole fails with a ConflictError while users hold the role
	DeleteRole(ctx context.Context, p *models.Principal, id string) error

	// ListPermissions returns the catalog grouped by module
	ListPermissions(ctx context.Context) []models.PermissionGroup
}

// RoleRequest is used for both create and full update
type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}
