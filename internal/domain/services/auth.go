package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// AuthService handles sign-in, self-service account flows and principal loading
type AuthService interface {
	// Register creates an inactive account with the default role, pending admin activation
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// ForgotPassword never reveals whether the email exists
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error

	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error

	// LoadPrincipal resolves verified claims to an active user with effective permissions.
	// Inactive users yield ErrForbidden; tokens issued before a forced logout yield ErrUnauthorized.
	LoadPrincipal(ctx context.Context, claims *models.TokenClaims) (*models.Principal, error)
}

// Mailer delivers account emails
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access token and the signed-in profile
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expiresAt"`
	User      *Profile `json:"user"`
}

// ResetPasswordRequest completes the forgot-password flow
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial update of the caller's own profile
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// ChangePasswordRequest requires the current password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Profile is the signed-in user with effective permissions
type Profile struct {
	*models.User
	Permissions []string `json:"permissions"`
}
