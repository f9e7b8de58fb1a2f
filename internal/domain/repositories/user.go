package repositories

import (
	"context"
	"time"

	"titledesk/internal/domain/models"
)

// UserRepository defines data access operations for users
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error

	// GetByID loads the user with role name and assigned company IDs
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error)
	List(ctx context.Context, filter *models.UserFilter) ([]models.User, int, error)

	// Update writes profile, role and status columns
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error

	SetPassword(ctx context.Context, id, hash string) error
	SetResetToken(ctx context.Context, id string, hash *string, expiresAt *time.Time) error
	SetForcedLogout(ctx context.Context, id string, at time.Time) error
	// ClearExpiredResetTokens drops reset tokens that expired before the given time
	ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)

	// SetAssignedCompanies replaces the user's company scope
	SetAssignedCompanies(ctx context.Context, userID string, companyIDs []string) error

	// ActiveUserIDsForCompany returns active users whose scope includes the named company
	ActiveUserIDsForCompany(ctx context.Context, companyName string) ([]string, error)
}

// RoleRepository defines data access operations for roles and permissions
type RoleRepository interface {
	Create(ctx context.Context, r *models.Role) error
	GetByID(ctx context.Context, id string) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Update(ctx context.Context, r *models.Role) error
	Delete(ctx context.Context, id string) error

	// SetPermissions replaces the role's permission slugs
	SetPermissions(ctx context.Context, roleID string, slugs []string) error

	// ListPermissions returns the full permission catalog stored in the database
	ListPermissions(ctx context.Context) ([]models.Permission, error)

	// UpsertPermissions inserts or refreshes catalog entries
	UpsertPermissions(ctx context.Context, perms []models.Permission) error

	// EffectivePermissions returns role permissions united with user overrides
	EffectivePermissions(ctx context.Context, userID string) ([]string, error)

	// UserPermissions returns only the user-specific overrides
	UserPermissions(ctx context.Context, userID string) ([]string, error)
	SetUserPermissions(ctx context.Context, userID string, slugs []string) error
}
