package models

import "time"

// Audit actions
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
	AuditStatus = "status_change"
	AuditLogin  = "login"
)

// AuditLog records one mutation performed through the API
type AuditLog struct {
	ID         string                 `json:"id" db:"id"`
	UserID     *string                `json:"userId" db:"user_id"`
	UserEmail  string                 `json:"userEmail" db:"user_email"`
	Action     string                 `json:"action" db:"action"`
	EntityType string                 `json:"entityType" db:"entity_type"`
	EntityID   string                 `json:"entityId" db:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at"`
}

// AuditLogFilter configures the audit log list query
type AuditLogFilter struct {
	ListFilter
	EntityType string
	EntityID   string
	UserID     string
	Action     string
	From       *time.Time
	To         *time.Time
}
