package models

import (
	"strings"
	"time"
)

// UserStatus controls whether a user may sign in
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// AdminRoleName is the role that bypasses permission checks and company scoping
const AdminRoleName = "admin"

// DefaultRoleName is assigned to self-registered users
const DefaultRoleName = "user"

// User is an account of the firm's staff or a client contact
type User struct {
	ID                  string     `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Email               string     `json:"email" db:"email"`
	Phone               string     `json:"phone" db:"phone"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	RoleID              *string    `json:"roleId" db:"role_id"`
	RoleName            string     `json:"roleName" db:"role_name"`
	Status              UserStatus `json:"status" db:"status"`
	AssignedCompanyIDs  []string   `json:"assignedCompanies" db:"-"`
	ForcedLogoutAt      *time.Time `json:"forcedLogoutAt,omitempty" db:"forced_logout_at"`
	ResetTokenHash      *string    `json:"-" db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user holds the administrator role
func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.RoleName, AdminRoleName)
}

// IsActive reports whether the account may be used
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// UserFilter configures the users list query
type UserFilter struct {
	ListFilter
	RoleID string
	Status UserStatus
}
