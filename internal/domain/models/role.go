package models

import "time"

// Permission is a named capability slug grouped by module
type Permission struct {
	Slug        string `json:"slug" db:"slug" yaml:"slug"`
	Name        string `json:"name" db:"name" yaml:"name"`
	Module      string `json:"module" db:"module" yaml:"-"`
	Description string `json:"description,omitempty" db:"description" yaml:"description"`
}

// PermissionGroup is the permissions of one module, for display
type PermissionGroup struct {
	Module      string       `json:"module"`
	Permissions []Permission `json:"permissions"`
}

// Role holds a set of permission slugs
type Role struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Permissions []string  `json:"permissions" db:"-"`
	UserCount   int       `json:"userCount" db:"user_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
