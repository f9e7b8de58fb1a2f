package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	"titledesk/internal/metrics"
)

// notificationService implements the NotificationService interface
type notificationService struct {
	notificationRepo repositories.NotificationRepository
	logger           *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repositories.NotificationRepository, logger *slog.Logger) services.NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// ListNotifications returns a page of the user's notifications
func (s *notificationService) ListNotifications(ctx context.Context, filter *models.NotificationFilter) (*models.Page[models.Notification], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)

	items, total, err := s.notificationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &models.Page[models.Notification]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UnreadCount returns the number of unread notifications
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read
func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every unread notification read and returns how many changed
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read", "user_id", userID, "count", n)
	return n, nil
}

// DeleteNotification removes one of the user's notifications
func (s *notificationService) DeleteNotification(ctx context.Context, userID, id string) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}

// Notify creates one notification per recipient, logging failures
func (s *notificationService) Notify(ctx context.Context, userIDs []string, title, message string, link *string) {
	now := time.Now()
	for _, userID := range userIDs {
		n := &models.Notification{
			UserID:    userID,
			Title:     title,
			Message:   message,
			Link:      link,
			CreatedAt: now,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			metrics.RecordPeripheralFailure("notification")
			s.logger.Warn("failed to create notification", "user_id", userID, "error", err)
		}
	}
}
