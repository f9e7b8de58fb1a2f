package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	"titledesk/internal/metrics"
)

// queryService implements the QueryService interface
type queryService struct {
	queryRepo     repositories.QueryRepository
	appRepo       repositories.ApplicationRepository
	userRepo      repositories.UserRepository
	applications  services.ApplicationService
	notifications services.NotificationService
	audit         services.AuditService
	txManager     repositories.TransactionManager
	logger        *slog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	queryRepo repositories.QueryRepository,
	appRepo repositories.ApplicationRepository,
	userRepo repositories.UserRepository,
	applications services.ApplicationService,
	notifications services.NotificationService,
	audit services.AuditService,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.QueryService {
	return &queryService{
		queryRepo:     queryRepo,
		appRepo:       appRepo,
		userRepo:      userRepo,
		applications:  applications,
		notifications: notifications,
		audit:         audit,
		txManager:     txManager,
		logger:        logger,
	}
}

// RaiseQuery opens a query and moves the application to the Query status in one transaction.
// Users scoped to the application's company are notified best-effort.
func (s *queryService) RaiseQuery(ctx context.Context, p *models.Principal, applicationID string, req *services.RaiseQueryRequest) (*models.Query, error) {
	req.Message = plainText.Sanitize(req.Message)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, config.MaxQueryMessageLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	app, err := s.applications.GetApplication(ctx, p, applicationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	raisedBy := p.User.ID
	q := &models.Query{
		ApplicationID: app.ID,
		Message:       req.Message,
		Status:        models.QueryOpen,
		RaisedBy:      &raisedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.queryRepo.Create(ctx, q); err != nil {
			return err
		}
		return s.appRepo.SetStatus(ctx, app.ID, models.StatusQuery)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("query raised", "id", q.ID, "application_id", app.ID, "file_number", app.FileNumber)
	s.audit.Record(ctx, p, models.AuditCreate, "query", q.ID, map[string]interface{}{
		"applicationId": app.ID,
		"fileNumber":    app.FileNumber,
	})
	s.notifyCompanyUsers(ctx, p, app, q)

	return q, nil
}

func (s *queryService) notifyCompanyUsers(ctx context.Context, p *models.Principal, app *models.Application, q *models.Query) {
	userIDs, err := s.userRepo.ActiveUserIDsForCompany(ctx, app.CompanyName)
	if err != nil {
		metrics.RecordPeripheralFailure("notification")
		s.logger.Warn("failed to resolve query recipients", "application_id", app.ID, "error", err)
		return
	}

	recipients := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != p.User.ID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}

	link := "/applications/" + app.ID
	s.notifications.Notify(ctx, recipients,
		fmt.Sprintf("Query raised on %s", app.FileNumber),
		truncate(q.Message, 200),
		&link,
	)
}

// ListQueries lists the queries of a visible application, oldest first
func (s *queryService) ListQueries(ctx context.Context, p *models.Principal, applicationID string) ([]models.Query, error) {
	if _, err := s.applications.GetApplication(ctx, p, applicationID); err != nil {
		return nil, err
	}
	return s.queryRepo.ListByApplication(ctx, applicationID)
}

// ResolveQuery marks a query resolved by the caller
func (s *queryService) ResolveQuery(ctx context.Context, p *models.Principal, id string) (*models.Query, error) {
	q, err := s.visibleQuery(ctx, p, id)
	if err != nil {
		return nil, err
	}

	q.Resolve(p.User.ID, time.Now())
	if err := s.queryRepo.UpdateResolution(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("query resolved", "id", id, "application_id", q.ApplicationID)
	s.audit.Record(ctx, p, models.AuditUpdate, "query", id, map[string]interface{}{"status": q.Status})
	return q, nil
}

// UnresolveQuery reopens a query, clearing resolvedBy and resolvedDate
func (s *queryService) UnresolveQuery(ctx context.Context, p *models.Principal, id string) (*models.Query, error) {
	q, err := s.visibleQuery(ctx, p, id)
	if err != nil {
		return nil, err
	}

	q.Unresolve(time.Now())
	if err := s.queryRepo.UpdateResolution(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("query reopened", "id", id, "application_id", q.ApplicationID)
	s.audit.Record(ctx, p, models.AuditUpdate, "query", id, map[string]interface{}{"status": q.Status})
	return q, nil
}

// visibleQuery loads a query whose application the principal can see
func (s *queryService) visibleQuery(ctx context.Context, p *models.Principal, id string) (*models.Query, error) {
	q, err := s.queryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.applications.GetApplication(ctx, p, q.ApplicationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
			return nil, fmt.Errorf("query %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return q, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
