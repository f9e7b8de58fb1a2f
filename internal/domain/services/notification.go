package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// NotificationService handles in-app notifications of the calling user
type NotificationService interface {
	ListNotifications(ctx context.Context, filter *models.NotificationFilter) (*models.Page[models.Notification], error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error

	// Notify creates one notification per user. Failures are logged, never returned.
	Notify(ctx context.Context, userIDs []string, title, message string, link *string)
}

// AuditService records and lists audit entries
type AuditService interface {
	// Record writes an entry best-effort; failures are logged, never returned
	Record(ctx context.Context, p *models.Principal, action, entityType, entityID string, details map[string]interface{})
	ListAuditLogs(ctx context.Context, filter *models.AuditLogFilter) (*models.Page[models.AuditLog], error)
}
