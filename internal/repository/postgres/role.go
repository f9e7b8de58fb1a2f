package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

// PostgresRoleRepository implements the RoleRepository interface
type PostgresRoleRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(config *RepositoryConfig) repositories.RoleRepository {
	return &PostgresRoleRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresRoleRepository) selectRoles() string {
	return fmt.Sprintf(`
		SELECT ro.id, ro.name, ro.description, ro.created_at, ro.updated_at,
			(SELECT COUNT(*) FROM %s u WHERE u.role_id = ro.id),
			COALESCE((SELECT array_agg(rp.permission_slug ORDER BY rp.permission_slug)
				FROM %s rp WHERE rp.role_id = ro.id), '{}')
		FROM %s ro`,
		r.tables.Users, r.tables.RolePermissions, r.tables.Roles)
}

func scanRole(row pgx.Row, role *models.Role) error {
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
		&role.UpdatedAt,
		&role.UserCount,
		&role.Permissions,
	)
	role.Permissions = nonNil(role.Permissions)
	return err
}

// Create inserts a role and its permissions
func (r *PostgresRoleRepository) Create(ctx context.Context, role *models.Role) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.Roles)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		role.Name, role.Description, role.CreatedAt, role.UpdatedAt,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "create role", "role", fmt.Sprintf("role '%s' already exists", role.Name))
	}

	return r.SetPermissions(ctx, role.ID, role.Permissions)
}

// GetByID retrieves a role with its permissions and user count
func (r *PostgresRoleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	query := r.selectRoles() + " WHERE ro.id = $1"
	if err := scanRole(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &role); err != nil {
		return nil, wrapNotFound(err, "get role", "role", id)
	}
	return &role, nil
}

// GetByName retrieves a role by case-insensitive name
func (r *PostgresRoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	query := r.selectRoles() + " WHERE LOWER(ro.name) = LOWER($1)"
	if err := scanRole(GetExecutor(ctx, r.pool).QueryRow(ctx, query, name), &role); err != nil {
		return nil, wrapNotFound(err, "get role", "role", name)
	}
	return &role, nil
}

// List returns all roles ordered by name
func (r *PostgresRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, r.selectRoles()+" ORDER BY ro.name ASC")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := scanRole(rows, &role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// Update writes name and description
func (r *PostgresRoleRepository) Update(ctx context.Context, role *models.Role) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, description = $2, updated_at = $3 WHERE id = $4
	`, r.tables.Roles)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, role.Name, role.Description, role.UpdatedAt, role.ID)
	if err != nil {
		return wrapWriteError(err, "update role", "role", fmt.Sprintf("role '%s' already exists", role.Name))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("role %s: %w", role.ID, domain.ErrNotFound)
	}
	return nil
}

// deleteUnassignedRoleSQL deletes the role only while no user references it,
// so the check and the delete are one statement.
func deleteUnassignedRoleSQL(t *TableNames) string {
	return fmt.Sprintf(`
		DELETE FROM %s r
		WHERE r.id = $1
		  AND NOT EXISTS (SELECT 1 FROM %s u WHERE u.role_id = r.id)
	`, t.Roles, t.Users)
}

// Delete removes a role that no user references. An assigned role yields a
// ConflictError with the current user count.
func (r *PostgresRoleRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	result, err := executor.Exec(ctx, deleteUnassignedRoleSQL(r.tables), id)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.ConflictError{
				Message:      "role is assigned to users",
				ResourceType: "role",
				ResourceID:   id,
			}
		}
		return fmt.Errorf("delete role: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	var assigned int
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1),
		       (SELECT COUNT(*) FROM %s WHERE role_id = $1)
	`, r.tables.Roles, r.tables.Users)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists, &assigned); err != nil {
		return fmt.Errorf("check role %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("role %s: %w", id, domain.ErrNotFound)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("role is assigned to %d user(s)", assigned),
		ResourceType: "role",
		ResourceID:   id,
	}
}

// SetPermissions replaces the role's permission slugs
func (r *PostgresRoleRepository) SetPermissions(ctx context.Context, roleID string, slugs []string) error {
	return r.replaceSlugs(ctx, r.tables.RolePermissions, "role_id", roleID, slugs)
}

// ListPermissions returns the stored permission catalog
func (r *PostgresRoleRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	query := fmt.Sprintf(`
		SELECT slug, name, module, description FROM %s ORDER BY module ASC, slug ASC
	`, r.tables.Permissions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Permission])
	if err != nil {
		return nil, fmt.Errorf("scan permissions: %w", err)
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	return perms, nil
}

// UpsertPermissions inserts or refreshes catalog entries
func (r *PostgresRoleRepository) UpsertPermissions(ctx context.Context, perms []models.Permission) error {
	if len(perms) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (slug, name, module, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, module = EXCLUDED.module, description = EXCLUDED.description
	`, r.tables.Permissions)

	batch := &pgx.Batch{}
	for _, p := range perms {
		batch.Queue(query, p.Slug, p.Name, p.Module, p.Description)
	}

	results := GetExecutor(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	for _, p := range perms {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert permission %s: %w", p.Slug, err)
		}
	}
	return nil
}

// EffectivePermissions returns role permissions united with user overrides
func (r *PostgresRoleRepository) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	return r.collectSlugs(ctx, effectivePermissionsSQL(r.tables), userID)
}

// effectivePermissionsSQL unions the slugs of the user's role with the user's overrides
func effectivePermissionsSQL(t *TableNames) string {
	return fmt.Sprintf(`
		SELECT rp.permission_slug
		FROM %s rp
		JOIN %s u ON u.role_id = rp.role_id
		WHERE u.id = $1
		UNION
		SELECT up.permission_slug FROM %s up WHERE up.user_id = $1
		ORDER BY 1
	`, t.RolePermissions, t.Users, t.UserPermissions)
}

// UserPermissions returns only the user-specific overrides
func (r *PostgresRoleRepository) UserPermissions(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT permission_slug FROM %s WHERE user_id = $1 ORDER BY permission_slug
	`, r.tables.UserPermissions)

	return r.collectSlugs(ctx, query, userID)
}

// SetUserPermissions replaces the user-specific overrides
func (r *PostgresRoleRepository) SetUserPermissions(ctx context.Context, userID string, slugs []string) error {
	return r.replaceSlugs(ctx, r.tables.UserPermissions, "user_id", userID, slugs)
}

func (r *PostgresRoleRepository) collectSlugs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list permission slugs: %w", err)
	}
	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan permission slugs: %w", err)
	}
	return nonNil(slugs), nil
}

// replaceSlugs deletes then re-inserts the (owner, slug) rows of a join table.
// Unknown slugs violate the permissions FK and surface as validation errors.
func (r *PostgresRoleRepository) replaceSlugs(ctx context.Context, table, ownerColumn, ownerID string, slugs []string) error {
	executor := GetExecutor(ctx, r.pool)

	if _, err := executor.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, ownerColumn), ownerID); err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}
	if len(slugs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, permission_slug)
		SELECT $1, s FROM unnest($2::text[]) AS s
		ON CONFLICT DO NOTHING
	`, table, ownerColumn)
	if _, err := executor.Exec(ctx, query, ownerID, slugs); err != nil {
		return wrapWriteError(err, "set permissions", "permission", "permission already granted")
	}
	return nil
}
