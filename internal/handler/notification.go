package handler

import (
	"log/slog"
	"net/http"
	"time"

	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
	"titledesk/internal/handler/sse"
	"titledesk/internal/httputil"
)

// NotificationHandler handles the caller's in-app notifications
type NotificationHandler struct {
	notificationService services.NotificationService
	streamConfig        *sse.Config
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService services.NotificationService, streamConfig *sse.Config, logger *slog.Logger) *NotificationHandler {
	if streamConfig == nil {
		streamConfig = sse.DefaultConfig()
	}
	return &NotificationHandler{
		notificationService: notificationService,
		streamConfig:        streamConfig,
		logger:              logger,
	}
}

// ListNotifications lists the caller's notifications, newest first
// GET /api/notifications?unread=true&page=&limit=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	filter := &models.NotificationFilter{
		ListFilter: listFilter(r),
		UserID:     httputil.GetUserID(r),
		UnreadOnly: httputil.QueryBool(r, "unread"),
	}

	page, err := h.notificationService.ListNotifications(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// UnreadCount returns the number of unread notifications
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead marks one notification read
// PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every notification of the caller read
// PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notificationService.MarkAllRead(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// DeleteNotification deletes one of the caller's notifications
// DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(r.Context(), httputil.GetUserID(r), id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamUnreadCount pushes an "unread" event whenever the unread count changes
// GET /api/notifications/stream
func (h *NotificationHandler) StreamUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	ctx := r.Context()

	stream, err := sse.Open(w)
	if err != nil {
		h.logger.Warn("notification stream unavailable", "error", err, "user_id", userID)
		return
	}

	heartbeat := sse.NewHeartbeat(h.streamConfig.KeepAliveInterval)
	heartbeat.Run(stream, h.logger)
	defer heartbeat.Stop()

	poll := time.NewTicker(h.streamConfig.PollInterval)
	defer poll.Stop()

	last := -1
	push := func() bool {
		count, err := h.notificationService.UnreadCount(ctx, userID)
		if err != nil {
			h.logger.Warn("unread count failed", "error", err, "user_id", userID)
			return ctx.Err() == nil
		}
		if count == last {
			return true
		}
		if err := stream.Event("unread", map[string]int{"count": count}); err != nil {
			return false
		}
		last = count
		return true
	}

	h.logger.Debug("notification stream opened", "user_id", userID)
	defer h.logger.Debug("notification stream closed", "user_id", userID)

	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.Dead():
			return
		case <-poll.C:
			if !push() {
				return
			}
		}
	}
}
