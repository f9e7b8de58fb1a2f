package repositories

import (
	"context"

	"titledesk/internal/domain/models"
)

// NotificationRepository defines data access operations for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter *models.NotificationFilter) ([]models.Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
}

// AuditLogRepository defines data access operations for audit logs
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter *models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// SettingsRepository defines data access operations for the app_settings key/value table
type SettingsRepository interface {
	// GetAll returns every stored key with its raw JSON value
	GetAll(ctx context.Context) (map[string][]byte, error)

	// Upsert stores the JSON value for key
	Upsert(ctx context.Context, key string, value []byte) error

	// LockFileNumber reads prefix, sequence and padding with row locks held until
	// the surrounding transaction ends. Must be called inside TransactionManager.ExecTx.
	LockFileNumber(ctx context.Context) (*models.FileNumberSettings, error)

	// SetSequence persists the next sequence value
	SetSequence(ctx context.Context, next int) error
}
