package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"titledesk/internal/auth"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/httputil"
)

// PrincipalLoader resolves verified token claims to the current user
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, claims *models.TokenClaims) (*models.Principal, error)
}

// Auth validates the bearer token, reloads the user and attaches the principal.
// Inactive users get 403; revoked, expired or malformed tokens get 401.
func Auth(verifier auth.JWTVerifier, loader PrincipalLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token rejected", "error", err, "request_id", httputil.GetRequestID(r.Context()))
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "invalid or expired token", nil)
				return
			}

			principal, err := loader.LoadPrincipal(r.Context(), claims)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrForbidden):
				httputil.RespondProblem(w, r, http.StatusForbidden, "account is not active", nil)
				return
			case errors.Is(err, domain.ErrUnauthorized):
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "session is no longer valid", nil)
				return
			default:
				logger.Error("failed to load principal", "error", err, "user_id", claims.GetUserID())
				httputil.RespondProblem(w, r, http.StatusInternalServerError, "internal server error", nil)
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequirePermission allows the request when the principal holds any of slugs.
// Admins always pass. Must run after Auth.
func RequirePermission(slugs ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := httputil.GetPrincipal(r)
			if p == nil {
				httputil.RespondProblem(w, r, http.StatusUnauthorized, "authentication required", nil)
				return
			}
			if !p.Has(slugs...) {
				httputil.RespondProblem(w, r, http.StatusForbidden, "insufficient permissions",
					map[string]interface{}{"required": slugs})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
