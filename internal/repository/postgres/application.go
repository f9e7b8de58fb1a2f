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

const applicationColumns = `id, file_number, status, company_name, branch_name, applicant_name,
	owner_name, property_address, remarks, created_by, created_at, updated_at`

// PostgresApplicationRepository implements the ApplicationRepository interface
type PostgresApplicationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(config *RepositoryConfig) repositories.ApplicationRepository {
	return &PostgresApplicationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanApplication(row pgx.Row, app *models.Application) error {
	return row.Scan(
		&app.ID,
		&app.FileNumber,
		&app.Status,
		&app.CompanyName,
		&app.BranchName,
		&app.ApplicantName,
		&app.OwnerName,
		&app.PropertyAddress,
		&app.Remarks,
		&app.CreatedBy,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
}

// Create inserts a new application
func (r *PostgresApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_number, status, company_name, branch_name, applicant_name,
			owner_name, property_address, remarks, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, r.tables.Applications)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		app.FileNumber,
		app.Status,
		app.CompanyName,
		app.BranchName,
		app.ApplicantName,
		app.OwnerName,
		app.PropertyAddress,
		app.Remarks,
		app.CreatedBy,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("file number '%s' already exists", app.FileNumber),
				ResourceType: "application",
			}
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, applicationColumns, r.tables.Applications)

	var app models.Application
	if err := scanApplication(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &app); err != nil {
		return nil, wrapNotFound(err, "get application", "application", id)
	}
	return &app, nil
}

// List returns a page of applications and the total match count
func (r *PostgresApplicationRepository) List(ctx context.Context, filter *models.ApplicationFilter) ([]models.Application, int, error) {
	qb := buildApplicationFilter(filter)
	executor := GetExecutor(ctx, r.pool)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tables.Applications, qb.WhereClause())
	var total int
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	if total == 0 {
		return []models.Application{}, 0, nil
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s %s, id %s%s`,
		applicationColumns, r.tables.Applications, qb.WhereClause(),
		filter.SortBy, direction, direction, pagination)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var app models.Application
		if err := scanApplication(rows, &app); err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate applications: %w", err)
	}

	return apps, total, nil
}

// buildApplicationFilter turns the filter into WHERE predicates.
// SortBy must already be whitelisted by ApplyDefaults.
func buildApplicationFilter(f *models.ApplicationFilter) *QueryBuilder {
	qb := NewQueryBuilder()

	if f.Status != "" {
		qb.Where("status = ?", f.Status)
	} else {
		qb.Where("status <> ?", models.StatusDeleted)
	}

	qb.WhereEq("company_name", f.Company)
	qb.WhereEq("branch_name", f.Branch)
	qb.Search(f.Search, "file_number", "applicant_name", "owner_name", "property_address")
	qb.WhereIf(f.From != nil, "created_at >= ?", derefTime(f.From))
	qb.WhereIf(f.To != nil, "created_at <= ?", derefTime(f.To))

	if f.CompanyNames != nil {
		qb.WhereAny("company_name", f.CompanyNames)
	}
	return qb
}

// Update writes all mutable columns
func (r *PostgresApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET file_number = $1, status = $2, company_name = $3, branch_name = $4,
			applicant_name = $5, owner_name = $6, property_address = $7, remarks = $8,
			updated_at = $9
		WHERE id = $10
	`, r.tables.Applications)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		app.FileNumber,
		app.Status,
		app.CompanyName,
		app.BranchName,
		app.ApplicantName,
		app.OwnerName,
		app.PropertyAddress,
		app.Remarks,
		app.UpdatedAt,
		app.ID,
	)
	if err != nil {
		return wrapWriteError(err, "update application", "application",
			fmt.Sprintf("file number '%s' already exists", app.FileNumber))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application %s: %w", app.ID, domain.ErrNotFound)
	}
	return nil
}

// SetStatus changes the workflow status
func (r *PostgresApplicationRepository) SetStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = NOW() WHERE id = $2`, r.tables.Applications)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// FileNumberExists reports whether fileNumber is taken
func (r *PostgresApplicationRepository) FileNumberExists(ctx context.Context, fileNumber string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE file_number = $1)`, r.tables.Applications)

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, fileNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("check file number: %w", err)
	}
	return exists, nil
}
