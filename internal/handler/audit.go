package handler

import (
	"log/slog"
	"net/http"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/httputil"
)

// AuditHandler exposes the audit trail
type AuditHandler struct {
	auditService services.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService services.AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// ListAuditLogs lists audit entries, newest first
// GET /api/audit-logs?entityType=&entityId=&userId=&action=&from=&to=&page=&limit=
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	from, err := httputil.QueryDate(r, "from", false)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := httputil.QueryDate(r, "to", true)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := &models.AuditLogFilter{
		ListFilter: listFilter(r),
		EntityType: httputil.QueryString(r, "entityType"),
		EntityID:   httputil.QueryString(r, "entityId"),
		UserID:     httputil.QueryString(r, "userId"),
		Action:     httputil.QueryString(r, "action"),
		From:       from,
		To:         to,
	}

	page, err := h.auditService.ListAuditLogs(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}
