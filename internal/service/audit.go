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

// auditService implements the AuditService interface
type auditService struct {
	auditRepo repositories.AuditLogRepository
	logger    *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditLogRepository, logger *slog.Logger) services.AuditService {
	return &auditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record writes an audit entry. A nil principal records a system action.
func (s *auditService) Record(ctx context.Context, p *models.Principal, action, entityType, entityID string, details map[string]interface{}) {
	entry := &models.AuditLog{
		UserEmail:  "system",
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if p != nil && p.User != nil {
		id := p.User.ID
		entry.UserID = &id
		entry.UserEmail = p.User.Email
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		metrics.RecordPeripheralFailure("audit_log")
		s.logger.Warn("failed to write audit log",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

// ListAuditLogs returns a page of audit entries
func (s *auditService) ListAuditLogs(ctx context.Context, filter *models.AuditLogFilter) (*models.Page[models.AuditLog], error) {
	filter.ApplyDefaults(config.DefaultPageSize, config.MaxPageSize)

	items, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return &models.Page[models.AuditLog]{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
