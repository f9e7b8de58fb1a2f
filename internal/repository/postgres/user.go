package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// selectUsers returns the SELECT ... FROM ... JOIN prefix shared by all user reads
func (r *PostgresUserRepository) selectUsers() string {
	return fmt.Sprintf(`
		SELECT u.id, u.name, u.email, u.phone, u.password_hash, u.role_id::text, COALESCE(ro.name, ''),
			u.status, u.forced_logout_at, u.reset_token_hash, u.reset_token_expires_at,
			u.created_at, u.updated_at,
			COALESCE((SELECT array_agg(uc.company_id::text) FROM %s uc WHERE uc.user_id = u.id), '{}')
		FROM %s u
		LEFT JOIN %s ro ON ro.id = u.role_id`,
		r.tables.UserCompanies, r.tables.Users, r.tables.Roles)
}

func scanUser(row pgx.Row, u *models.User) error {
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.RoleID,
		&u.RoleName,
		&u.Status,
		&u.ForcedLogoutAt,
		&u.ResetTokenHash,
		&u.ResetTokenExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.AssignedCompanyIDs,
	)
	u.AssignedCompanyIDs = nonNil(u.AssignedCompanyIDs)
	return err
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg interface{}, label string) (*models.User, error) {
	query := r.selectUsers() + " WHERE " + where

	var u models.User
	if err := scanUser(GetExecutor(ctx, r.pool).QueryRow(ctx, query, arg), &u); err != nil {
		return nil, wrapNotFound(err, "get user", "user", label)
	}
	return &u, nil
}

// Create inserts a user and its company scope
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, email, phone, password_hash, role_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Users)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		u.Name, strings.ToLower(u.Email), u.Phone, u.PasswordHash, u.RoleID, u.Status, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "create user", "user", fmt.Sprintf("email '%s' is already registered", u.Email))
	}

	if len(u.AssignedCompanyIDs) > 0 {
		return r.SetAssignedCompanies(ctx, u.ID, u.AssignedCompanyIDs)
	}
	return nil
}

// GetByID loads a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "u.id = $1", id, id)
}

// GetByEmail loads a user by email, case-insensitively
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "u.email = $1", email, email)
}

// GetByResetTokenHash loads the user owning an unexpired password reset token
func (r *PostgresUserRepository) GetByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getOne(ctx, "u.reset_token_hash = $1 AND u.reset_token_expires_at > NOW()", hash, "reset token")
}

// List returns a page of users
func (r *PostgresUserRepository) List(ctx context.Context, filter *models.UserFilter) ([]models.User, int, error) {
	qb := NewQueryBuilder().
		Search(filter.Search, "u.name", "u.email", "u.phone").
		WhereEq("u.role_id::text", filter.RoleID).
		WhereEq("u.status", string(filter.Status))
	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s u%s`, r.tables.Users, qb.WhereClause())
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := r.selectUsers() + qb.WhereClause() + " ORDER BY u.name ASC, u.id ASC" + pagination

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// Update writes profile, role and status columns
func (r *PostgresUserRepository) Update(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, email = $2, phone = $3, role_id = $4, status = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Users)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		u.Name, strings.ToLower(u.Email), u.Phone, u.RoleID, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return wrapWriteError(err, "update user", "user", fmt.Sprintf("email '%s' is already registered", u.Email))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a user; company scope and overrides cascade
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Users), "delete user", id, id)
}

// SetPassword stores a new password hash and clears any pending reset token
func (r *PostgresUserRepository) SetPassword(ctx context.Context, id, hash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Users)
	return r.execOne(ctx, query, "set password", id, hash, id)
}

// SetResetToken stores (or clears, with nil) the password reset token hash
func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id string, hash *string, expiresAt *time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = NOW() WHERE id = $3
	`, r.tables.Users)
	return r.execOne(ctx, query, "set reset token", id, hash, expiresAt, id)
}

// SetForcedLogout records the cutoff before which issued tokens are rejected
func (r *PostgresUserRepository) SetForcedLogout(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET forced_logout_at = $1, updated_at = NOW() WHERE id = $2`, r.tables.Users)
	return r.execOne(ctx, query, "force logout", id, at, id)
}

// ClearExpiredResetTokens drops reset tokens that expired before the given time
func (r *PostgresUserRepository) ClearExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at < $1
	`, r.tables.Users)
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

// SetAssignedCompanies replaces the user's company scope
func (r *PostgresUserRepository) SetAssignedCompanies(ctx context.Context, userID string, companyIDs []string) error {
	executor := GetExecutor(ctx, r.pool)

	if _, err := executor.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.UserCompanies), userID); err != nil {
		return fmt.Errorf("clear assigned companies: %w", err)
	}

	if len(companyIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, company_id)
		SELECT $1, c::uuid FROM unnest($2::text[]) AS c
		ON CONFLICT DO NOTHING
	`, r.tables.UserCompanies)
	if _, err := executor.Exec(ctx, query, userID, companyIDs); err != nil {
		return wrapWriteError(err, "assign companies", "company", "company already assigned")
	}
	return nil
}

// ActiveUserIDsForCompany returns active users scoped to the named company
func (r *PostgresUserRepository) ActiveUserIDsForCompany(ctx context.Context, companyName string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT u.id::text
		FROM %s u
		JOIN %s uc ON uc.user_id = u.id
		JOIN %s c ON c.id = uc.company_id
		WHERE c.name = $1 AND u.status = $2
	`, r.tables.Users, r.tables.UserCompanies, r.tables.Companies)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, companyName, models.UserActive)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan company users: %w", err)
	}
	return nonNil(ids), nil
}

func (r *PostgresUserRepository) execOne(ctx context.Context, query, op, id string, args ...interface{}) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
