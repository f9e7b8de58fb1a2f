package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
)

// PostgresNotificationRepository implements the NotificationRepository interface
type PostgresNotificationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(config *RepositoryConfig) repositories.NotificationRepository {
	return &PostgresNotificationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a notification
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, message, link, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Notifications)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		n.UserID, n.Title, n.Message, n.Link, n.CreatedAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return wrapWriteError(err, "create notification", "notification", "notification already exists")
	}
	return nil
}

// List returns a page of the user's notifications, newest first
func (r *PostgresNotificationRepository) List(ctx context.Context, filter *models.NotificationFilter) ([]models.Notification, int, error) {
	qb := NewQueryBuilder().
		Where("user_id = ?", filter.UserID).
		WhereIf(filter.UnreadOnly, "read_at IS NULL").
		Search(filter.Search, "title", "message")
	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.tables.Notifications, qb.WhereClause())
	if err := executor.QueryRow(ctx, countQuery, qb.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	if total == 0 {
		return []models.Notification{}, 0, nil
	}

	pagination, args := qb.Paginate(filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, user_id, title, message, link, read_at, created_at
		FROM %s%s
		ORDER BY created_at DESC, id DESC%s
	`, r.tables.Notifications, qb.WhereClause(), pagination)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, total, nil
}

// UnreadCount returns how many of the user's notifications are unread
func (r *PostgresNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1 AND read_at IS NULL`, r.tables.Notifications)

	var count int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. Already-read rows are left unchanged.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET read_at = COALESCE(read_at, NOW()) WHERE id = $1 AND user_id = $2
	`, r.tables.Notifications)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`UPDATE %s SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, r.tables.Notifications)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

// Delete removes one of the user's notifications
func (r *PostgresNotificationRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Notifications)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
