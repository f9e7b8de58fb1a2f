package models

import "time"

// Notification is an in-app message for one user
type Notification struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"userId" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Link      *string    `json:"link,omitempty" db:"link"`
	ReadAt    *time.Time `json:"readAt" db:"read_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// NotificationFilter configures the notifications list query
type NotificationFilter struct {
	ListFilter
	UserID     string
	UnreadOnly bool
}
