package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/auth"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/services"
)

type stubIssuer struct{}

func (stubIssuer) IssueToken(user *models.User) (string, int64, error) {
	return "token-" + user.ID, time.Now().Add(time.Hour).Unix(), nil
}

type capturingMailer struct{ links []string }

func (m *capturingMailer) SendPasswordReset(_ context.Context, _, _, link string) error {
	m.links = append(m.links, link)
	return nil
}

func newTestAuthService(users *memUsers, roles *memRoles, mailer services.Mailer) services.AuthService {
	return NewAuthService(users, roles, stubIssuer{}, mailer, &nopAudit{}, "https://app.example.com/", time.Hour, discardLogger())
}

func claimsAt(userID string, issued time.Time) *models.TokenClaims {
	return &models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(issued),
	}}
}

func TestLoadPrincipal(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 10, 0, 0, 500_000_000, time.UTC)
	users := &memUsers{byID: map[string]*models.User{
		"active":   {ID: "active", RoleName: "user", Status: models.UserActive},
		"inactive": {ID: "inactive", RoleName: "user", Status: models.UserInactive},
		"revoked":  {ID: "revoked", RoleName: "user", Status: models.UserActive, ForcedLogoutAt: &cutoff},
	}}
	roles := &memRoles{effective: map[string][]string{"active": {"view_applications"}}}
	svc := newTestAuthService(users, roles, &capturingMailer{})
	ctx := context.Background()

	p, err := svc.LoadPrincipal(ctx, claimsAt("active", time.Now()))
	require.NoError(t, err)
	assert.True(t, p.Has("view_applications"))
	assert.False(t, p.Has("manage_users"))

	_, err = svc.LoadPrincipal(ctx, claimsAt("inactive", time.Now()))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.LoadPrincipal(ctx, claimsAt("missing", time.Now()))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.LoadPrincipal(ctx, claimsAt("revoked", cutoff.Add(-time.Minute)))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// iat is whole seconds: a token from earlier in the logout second must fail
	_, err = svc.LoadPrincipal(ctx, claimsAt("revoked", cutoff.Add(-400*time.Millisecond)))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.LoadPrincipal(ctx, claimsAt("revoked", cutoff.Truncate(time.Second).Add(time.Second)))
	assert.NoError(t, err)
}

func TestLogoutCutoff(t *testing.T) {
	exact := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, exact, logoutCutoff(exact))
	assert.Equal(t, exact.Add(time.Second), logoutCutoff(exact.Add(900*time.Millisecond)))
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	users := &memUsers{byID: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@example.com", PasswordHash: hash, Status: models.UserActive},
		"u2": {ID: "u2", Email: "b@example.com", PasswordHash: hash, Status: models.UserInactive},
	}}
	svc := newTestAuthService(users, &memRoles{}, &capturingMailer{})
	ctx := context.Background()

	resp, err := svc.Login(ctx, &services.LoginRequest{Email: " A@example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "token-u1", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	assert.NotNil(t, resp.User.Permissions)

	_, err = svc.Login(ctx, &services.LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, &services.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, &services.LoginRequest{Email: "b@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

type resetUsers struct {
	memUsers
	tokenHash *string
}

func (r *resetUsers) SetResetToken(_ context.Context, _ string, hash *string, _ *time.Time) error {
	r.tokenHash = hash
	return nil
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	users := &resetUsers{memUsers: memUsers{byID: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@example.com"},
	}}}
	mailer := &capturingMailer{}
	svc := newTestAuthService(&users.memUsers, &memRoles{}, mailer)

	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, mailer.links)

	err := svc.ForgotPassword(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestForgotPassword_StoresHashAndMailsLink(t *testing.T) {
	users := &resetUsers{memUsers: memUsers{byID: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@example.com"},
	}}}
	mailer := &capturingMailer{}
	svc := NewAuthService(users, &memRoles{}, stubIssuer{}, mailer, &nopAudit{}, "https://app.example.com/", time.Hour, discardLogger())

	require.NoError(t, svc.ForgotPassword(context.Background(), "a@example.com"))
	require.Len(t, mailer.links, 1)
	require.NotNil(t, users.tokenHash)

	link := mailer.links[0]
	assert.Contains(t, link, "https://app.example.com/reset-password?token=")
	token := link[len("https://app.example.com/reset-password?token="):]
	assert.Equal(t, hashResetToken(token), *users.tokenHash)
	assert.NotContains(t, *users.tokenHash, token)
}
