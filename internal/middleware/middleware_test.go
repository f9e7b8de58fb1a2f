package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubVerifier struct{}

func (stubVerifier) VerifyToken(token string) (*models.TokenClaims, error) {
	if token == "bad" {
		return nil, domain.ErrUnauthorized
	}
	return &models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  token,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}}, nil
}

// stubLoader maps user IDs to outcomes
type stubLoader struct {
	principals map[string]*models.Principal
	errs       map[string]error
}

func (l stubLoader) LoadPrincipal(_ context.Context, claims *models.TokenClaims) (*models.Principal, error) {
	if err, ok := l.errs[claims.Subject]; ok {
		return nil, err
	}
	return l.principals[claims.Subject], nil
}

func newAuthChain(next http.Handler) http.Handler {
	loader := stubLoader{
		principals: map[string]*models.Principal{
			"staff": {User: &models.User{ID: "staff", RoleName: "user"}, Permissions: map[string]bool{"view_applications": true}},
			"admin": {User: &models.User{ID: "admin", RoleName: "Admin"}},
		},
		errs: map[string]error{
			"inactive": domain.ErrForbidden,
			"revoked":  domain.ErrUnauthorized,
			"broken":   errors.New("db down"),
		},
	}
	return Auth(stubVerifier{}, loader, discardLogger())(next)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"user": httputil.GetUserID(r)})
}

func doRequest(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/applications", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	h := newAuthChain(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "bad", http.StatusUnauthorized},
		{"inactive user", "inactive", http.StatusForbidden},
		{"forced logout", "revoked", http.StatusUnauthorized},
		{"loader failure", "broken", http.StatusInternalServerError},
		{"valid", "staff", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, tt.token)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := doRequest(h, "staff")
	assert.JSONEq(t, `{"user":"staff"}`, rec.Body.String())
}

func TestAuth_RejectsNonBearerScheme(t *testing.T) {
	h := newAuthChain(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic c3RhZmY6")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission_AnyOf(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		slugs  []string
		status int
	}{
		{"holds one of", "staff", []string{"create_applications", "view_applications"}, http.StatusOK},
		{"holds none", "staff", []string{"manage_users"}, http.StatusForbidden},
		{"admin bypass", "admin", []string{"manage_users"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthChain(RequirePermission(tc.slugs...)(http.HandlerFunc(okHandler)))
			rec := doRequest(h, tc.token)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	h := RequirePermission("view_applications")(http.HandlerFunc(okHandler))
	rec := doRequest(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, discardLogger())
	h := rl.Handler(http.HandlerFunc(okHandler))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111"), "limits are per client")

	assert.Equal(t, 0, rl.Cleanup(time.Now()))
	assert.Equal(t, 2, rl.Cleanup(time.Now().Add(time.Hour)))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
