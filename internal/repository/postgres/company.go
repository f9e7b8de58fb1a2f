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

const companyColumns = `id, name, contact_person, email, phone, address, notification_emails, created_at, updated_at`

// PostgresCompanyRepository implements the CompanyRepository interface
type PostgresCompanyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(config *RepositoryConfig) repositories.CompanyRepository {
	return &PostgresCompanyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanCompany(row pgx.Row, c *models.Company) error {
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ContactPerson,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.NotificationEmails,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	c.NotificationEmails = nonNil(c.NotificationEmails)
	return err
}

// Create inserts a company
func (r *PostgresCompanyRepository) Create(ctx context.Context, c *models.Company) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, contact_person, email, phone, address, notification_emails, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Companies)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, nonNil(c.NotificationEmails), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "create company", "company", fmt.Sprintf("company '%s' already exists", c.Name))
	}
	return nil
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, companyColumns, r.tables.Companies)

	var c models.Company
	if err := scanCompany(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &c); err != nil {
		return nil, wrapNotFound(err, "get company", "company", id)
	}
	return &c, nil
}

// List returns a page of companies ordered by name
func (r *PostgresCompanyRepository) List(ctx context.Context, filter *models.ListFilter) ([]models.Company, int, error) {
	qb := NewQueryBuilder().Search(filter.Search, "name", "contact_person", "email")
	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tables.Companies, qb.WhereClause())
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY name ASC%s`,
		companyColumns, r.tables.Companies, qb.WhereClause(), pagination)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		var c models.Company
		if err := scanCompany(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, total, nil
}

// Update writes all mutable columns
func (r *PostgresCompanyRepository) Update(ctx context.Context, c *models.Company) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, contact_person = $2, email = $3, phone = $4, address = $5,
			notification_emails = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Companies)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, nonNil(c.NotificationEmails), c.UpdatedAt, c.ID)
	if err != nil {
		return wrapWriteError(err, "update company", "company", fmt.Sprintf("company '%s' already exists", c.Name))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("company %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a company; company_files rows cascade via the foreign key
func (r *PostgresCompanyRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Companies)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("company %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// NamesByIDs resolves company IDs to their names
func (r *PostgresCompanyRepository) NamesByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	query := fmt.Sprintf(`SELECT name FROM %s WHERE id::text = ANY($1) ORDER BY name`, r.tables.Companies)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve company names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan company names: %w", err)
	}
	return nonNil(names), nil
}

// CreateFile links an external document to a company
func (r *PostgresCompanyRepository) CreateFile(ctx context.Context, f *models.CompanyFile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (company_id, name, url, drive_item_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.CompanyFiles)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		f.CompanyID, f.Name, f.URL, f.DriveItemID, f.CreatedBy, f.CreatedAt,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "create company file", "company_file", fmt.Sprintf("document '%s' already linked", f.Name))
	}
	return nil
}

// ListFiles lists a company's linked documents newest first
func (r *PostgresCompanyRepository) ListFiles(ctx context.Context, companyID string) ([]models.CompanyFile, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, name, url, drive_item_id, created_by, created_at
		FROM %s WHERE company_id = $1 ORDER BY created_at DESC
	`, r.tables.CompanyFiles)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company files: %w", err)
	}
	defer rows.Close()

	files := []models.CompanyFile{}
	for rows.Next() {
		var f models.CompanyFile
		if err := rows.Scan(&f.ID, &f.CompanyID, &f.Name, &f.URL, &f.DriveItemID, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile unlinks a company document
func (r *PostgresCompanyRepository) DeleteFile(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.CompanyFiles)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete company file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("company document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
