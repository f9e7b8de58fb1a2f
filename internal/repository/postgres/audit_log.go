package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

// PostgresAuditLogRepository implements the AuditLogRepository interface
type PostgresAuditLogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(config *RepositoryConfig) repositories.AuditLogRepository {
	return &PostgresAuditLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends an audit entry
func (r *PostgresAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, user_email, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.AuditLogs)

	details := entry.Details
	if details == nil {
		details = map[string]interface{}{}
	}

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		entry.UserID, entry.UserEmail, entry.Action, entry.EntityType, entry.EntityID, details, entry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns a page of audit entries, newest first
func (r *PostgresAuditLogRepository) List(ctx context.Context, filter *models.AuditLogFilter) ([]models.AuditLog, int, error) {
	qb := NewQueryBuilder().
		WhereEq("entity_type", filter.EntityType).
		WhereEq("entity_id", filter.EntityID).
		WhereEq("user_id::text", filter.UserID).
		WhereEq("action", filter.Action).
		WhereIf(filter.From != nil, "created_at >= ?", derefTime(filter.From)).
		WhereIf(filter.To != nil, "created_at <= ?", derefTime(filter.To)).
		Search(filter.Search, "user_email", "entity_id")
	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tables.AuditLogs, qb.WhereClause())
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	if total == 0 {
		return []models.AuditLog{}, 0, nil
	}

	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, user_id::text, user_email, action, entity_type, entity_id, COALESCE(details, '{}'::jsonb), created_at
		FROM %s%s
		ORDER BY created_at DESC, id DESC%s
	`, r.tables.AuditLogs, qb.WhereClause(), pagination)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}
	return entries, total, nil
}
