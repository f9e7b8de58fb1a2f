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

const queryColumns = `id, application_id, message, status, raised_by, resolved_by, resolved_date, created_at, updated_at`

// PostgresQueryRepository implements the QueryRepository interface
type PostgresQueryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewQueryRepository creates a new application query repository
func NewQueryRepository(config *RepositoryConfig) repositories.QueryRepository {
	return &PostgresQueryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanQuery(row pgx.Row, q *models.Query) error {
	return row.Scan(
		&q.ID,
		&q.ApplicationID,
		&q.Message,
		&q.Status,
		&q.RaisedBy,
		&q.ResolvedBy,
		&q.ResolvedDate,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
}

// Create inserts a new query
func (r *PostgresQueryRepository) Create(ctx context.Context, q *models.Query) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (application_id, message, status, raised_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.ApplicationQueries)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		q.ApplicationID,
		q.Message,
		q.Status,
		q.RaisedBy,
		q.CreatedAt,
		q.UpdatedAt,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return wrapWriteError(err, "create query", "query", "query already exists")
	}
	return nil
}

// GetByID retrieves a query by ID
func (r *PostgresQueryRepository) GetByID(ctx context.Context, id string) (*models.Query, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, queryColumns, r.tables.ApplicationQueries)

	var q models.Query
	if err := scanQuery(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &q); err != nil {
		return nil, wrapNotFound(err, "get query", "query", id)
	}
	return &q, nil
}

// ListByApplication returns all queries of an application, oldest first
func (r *PostgresQueryRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Query, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE application_id = $1 ORDER BY created_at ASC`,
		queryColumns, r.tables.ApplicationQueries)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	queries := []models.Query{}
	for rows.Next() {
		var q models.Query
		if err := scanQuery(rows, &q); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return queries, nil
}

// UpdateResolution persists the resolution state
func (r *PostgresQueryRepository) UpdateResolution(ctx context.Context, q *models.Query) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, resolved_by = $2, resolved_date = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.ApplicationQueries)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		q.Status, q.ResolvedBy, q.ResolvedDate, q.UpdatedAt, q.ID)
	if err != nil {
		return fmt.Errorf("update query resolution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("query %s: %w", q.ID, domain.ErrNotFound)
	}
	return nil
}
