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

const branchColumns = `id, name, code, contact_person, email, phone, address, created_at, updated_at`

// PostgresBranchRepository implements the BranchRepository interface
type PostgresBranchRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(config *RepositoryConfig) repositories.BranchRepository {
	return &PostgresBranchRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanBranch(row pgx.Row, b *models.Branch) error {
	return row.Scan(&b.ID, &b.Name, &b.Code, &b.ContactPerson, &b.Email, &b.Phone, &b.Address, &b.CreatedAt, &b.UpdatedAt)
}

// Create inserts a branch
func (r *PostgresBranchRepository) Create(ctx context.Context, b *models.Branch) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, code, contact_person, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Branches)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		b.Name, b.Code, b.ContactPerson, b.Email, b.Phone, b.Address, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "create branch", "branch", fmt.Sprintf("branch '%s' already exists", b.Name))
	}
	return nil
}

// GetByID retrieves a branch by ID
func (r *PostgresBranchRepository) GetByID(ctx context.Context, id string) (*models.Branch, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, branchColumns, r.tables.Branches)

	var b models.Branch
	if err := scanBranch(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &b); err != nil {
		return nil, wrapNotFound(err, "get branch", "branch", id)
	}
	return &b, nil
}

// List returns a page of branches ordered by name
func (r *PostgresBranchRepository) List(ctx context.Context, filter *models.ListFilter) ([]models.Branch, int, error) {
	qb := NewQueryBuilder().Search(filter.Search, "name", "code", "contact_person")
	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tables.Branches, qb.WhereClause())
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count branches: %w", err)
	}

	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY name ASC%s`,
		branchColumns, r.tables.Branches, qb.WhereClause(), pagination)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var b models.Branch
		if err := scanBranch(rows, &b); err != nil {
			return nil, 0, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate branches: %w", err)
	}
	return branches, total, nil
}

// Update writes all mutable columns
func (r *PostgresBranchRepository) Update(ctx context.Context, b *models.Branch) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, code = $2, contact_person = $3, email = $4, phone = $5, address = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Branches)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		b.Name, b.Code, b.ContactPerson, b.Email, b.Phone, b.Address, b.UpdatedAt, b.ID)
	if err != nil {
		return wrapWriteError(err, "update branch", "branch", fmt.Sprintf("branch '%s' already exists", b.Name))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("branch %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a branch
func (r *PostgresBranchRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Branches)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("branch %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
