package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/httputil"
)

// DriveTokenHeader carries the caller's delegated OneDrive access token
const DriveTokenHeader = "X-OneDrive-Token"

// handleError maps a service error onto a problem response. Unknown errors
// are logged and reported as a bare 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		extras := map[string]interface{}{}
		if conflict.ResourceType != "" {
			extras["resourceType"] = conflict.ResourceType
		}
		if conflict.ResourceID != "" {
			extras["resourceId"] = conflict.ResourceID
		}
		httputil.RespondProblem(w, r, http.StatusConflict, conflict.Error(), extras)
		return
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httputil.GetRequestID(r.Context()),
		)
		httputil.RespondProblem(w, r, status, "internal server error", nil)
		return
	}
	if status == http.StatusBadGateway {
		logger.Warn("upstream failure", "error", err, "path", r.URL.Path)
	}
	httputil.RespondProblem(w, r, status, err.Error(), nil)
}

var errorStatuses = []struct {
	target error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnavailable, http.StatusBadGateway},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// pathID reads a UUID path parameter, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if _, err := uuid.Parse(id); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// principal returns the authenticated caller; routes using it are always behind Auth
func principal(r *http.Request) *models.Principal {
	return httputil.GetPrincipal(r)
}

func driveToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(DriveTokenHeader))
}

// listFilter reads search, page and limit
func listFilter(r *http.Request) models.ListFilter {
	return models.ListFilter{
		Search: httputil.QueryString(r, "search"),
		Page:   httputil.QueryInt(r, "page"),
		Limit:  httputil.QueryInt(r, "limit"),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// HealthCheck is a simple health check endpoint
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
