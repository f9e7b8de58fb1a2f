package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewHMACTokenService("secret", time.Hour, testLogger())
	require.NoError(t, err)

	user := &models.User{ID: "u-1", Email: "a@example.com", RoleName: "admin"}
	token, exp, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.GetUserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.IssuedAt)
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := NewHMACTokenService("one", time.Hour, testLogger())
	b, _ := NewHMACTokenService("two", time.Hour, testLogger())

	token, _, err := a.IssueToken(&models.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_Expired(t *testing.T) {
	svc, _ := NewHMACTokenService("secret", time.Minute, testLogger())
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.IssueToken(&models.User{ID: "u-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	svc, _ := NewHMACTokenService("secret", time.Hour, testLogger())

	claims := models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_Garbage(t *testing.T) {
	svc, _ := NewHMACTokenService("secret", time.Hour, testLogger())
	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewHMACTokenService_EmptySecret(t *testing.T) {
	_, err := NewHMACTokenService("", time.Hour, testLogger())
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "x")
	assert.Error(t, err)
}
