package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"titledesk/internal/auth"
	"titledesk/internal/config"
	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
	"titledesk/internal/metrics"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

// authService implements the AuthService interface
type authService struct {
	userRepo    repositories.UserRepository
	roleRepo    repositories.RoleRepository
	tokens      auth.TokenIssuer
	mailer      services.Mailer
	audit       services.AuditService
	frontendURL string
	resetTTL    time.Duration
	logger      *slog.Logger
}

// NewAuthService creates the account and sign-in service
func NewAuthService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	tokens auth.TokenIssuer,
	mailer services.Mailer,
	audit services.AuditService,
	frontendURL string,
	resetTTL time.Duration,
	logger *slog.Logger,
) services.AuthService {
	return &authService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		tokens:      tokens,
		mailer:      mailer,
		audit:       audit,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
		logger:      logger,
	}
}

// Register creates an inactive account with the default role
func (s *authService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Phone, validation.Length(0, 32)),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 72)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var roleID *string
	role, err := s.roleRepo.GetByName(ctx, models.DefaultRoleName)
	switch {
	case err == nil:
		roleID = &role.ID
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Warn("default role missing, registering without role", "role", models.DefaultRoleName)
	default:
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		RoleID:       roleID,
		Status:       models.UserInactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "id", user.ID, "email", user.Email)
	s.audit.Record(ctx, &models.Principal{User: user}, models.AuditCreate, "user", user.ID, map[string]interface{}{
		"email":      user.Email,
		"registered": true,
	})
	return user, nil
}

// Login verifies credentials and issues an access token
func (s *authService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, errInvalidCredentials
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: account is not active", domain.ErrForbidden)
	}

	token, expiresAt, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "id", user.ID)
	s.audit.Record(ctx, &models.Principal{User: user}, models.AuditLogin, "user", user.ID, nil)
	return &services.LoginResponse{Token: token, ExpiresAt: expiresAt, User: profile}, nil
}

// ForgotPassword stores a reset token hash and mails the link. Unknown emails are ignored.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return fmt.Errorf("%w: email: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("forgot password lookup failed", "error", err)
		}
		return nil
	}

	token := uuid.NewString()
	hash := hashResetToken(token)
	expiresAt := time.Now().Add(s.resetTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, &hash, &expiresAt); err != nil {
		s.logger.Warn("failed to store reset token", "user_id", user.ID, "error", err)
		return nil
	}

	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, link); err != nil {
		metrics.RecordPeripheralFailure("mail")
		s.logger.Warn("failed to send password reset", "user_id", user.ID, "error", err)
		return nil
	}

	s.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password from a valid reset token and revokes existing sessions
func (s *authService) ResetPassword(ctx context.Context, req *services.ResetPasswordRequest) error {
	req.Token = strings.TrimSpace(req.Token)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Token, validation.Required),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 72)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByResetTokenHash(ctx, hashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: reset link is invalid or has expired", domain.ErrValidation)
		}
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.userRepo.SetForcedLogout(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("failed to revoke sessions after reset", "user_id", user.ID, "error", err)
	}

	s.logger.Info("password reset", "user_id", user.ID)
	s.audit.Record(ctx, &models.Principal{User: user}, models.AuditUpdate, "user", user.ID, map[string]interface{}{"passwordReset": true})
	return nil
}

// GetProfile returns the user with effective permissions
func (s *authService) GetProfile(ctx context.Context, userID string) (*services.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

// UpdateProfile changes the caller's own name and phone
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *services.UpdateProfileRequest) (*services.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := validation.ValidateStruct(user,
		validation.Field(&user.Name, validation.Required, validation.Length(1, config.MaxNameLength)),
		validation.Field(&user.Phone, validation.Length(0, 32)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID)
	return s.profile(ctx, user)
}

// ChangePassword requires the current password
func (s *authService) ChangePassword(ctx context.Context, userID string, req *services.ChangePasswordRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required, validation.Length(config.MinPasswordLength, 72)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrValidation)
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	s.audit.Record(ctx, &models.Principal{User: user}, models.AuditUpdate, "user", userID, map[string]interface{}{"passwordChanged": true})
	return nil
}

// logoutCutoff rounds a forced logout up to the next whole second. iat has
// second precision, so any token minted in the logout second is rejected too.
func logoutCutoff(at time.Time) time.Time {
	cutoff := at.Truncate(time.Second)
	if cutoff.Before(at) {
		cutoff = cutoff.Add(time.Second)
	}
	return cutoff
}

// LoadPrincipal resolves verified claims to the current user and permissions
func (s *authService) LoadPrincipal(ctx context.Context, claims *models.TokenClaims) (*models.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, claims.GetUserID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: account is not active", domain.ErrForbidden)
	}
	if user.ForcedLogoutAt != nil && (claims.IssuedAt == nil || claims.IssuedAt.Time.Before(logoutCutoff(*user.ForcedLogoutAt))) {
		return nil, fmt.Errorf("%w: session has been revoked", domain.ErrUnauthorized)
	}

	slugs, err := s.roleRepo.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		perms[slug] = true
	}
	return &models.Principal{User: user, Permissions: perms}, nil
}

func (s *authService) profile(ctx context.Context, user *models.User) (*services.Profile, error) {
	slugs, err := s.roleRepo.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &services.Profile{User: user, Permissions: nonNil(slugs)}, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
