package models

import "time"

// Company is a client company whose title files are processed
type Company struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	ContactPerson      string    `json:"contactPerson" db:"contact_person"`
	Email              string    `json:"email" db:"email"`
	Phone              string    `json:"phone" db:"phone"`
	Address            string    `json:"address" db:"address"`
	NotificationEmails []string  `json:"notificationEmails" db:"notification_emails"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Branch is an office location applications are attributed to
type Branch struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Code          string    `json:"code" db:"code"`
	ContactPerson string    `json:"contactPerson" db:"contact_person"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// ListFilter is the shared search + pagination filter for reference entities
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// MaxPage caps page numbers so offsets cannot overflow
const MaxPage = 1_000_000

// ApplyDefaults fills in pagination defaults
func (f *ListFilter) ApplyDefaults(defaultLimit, maxLimit int) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, defaultLimit, maxLimit)
}

// Offset returns the row offset for the current page
func (f *ListFilter) Offset() int {
	return pageOffset(f.Page, f.Limit)
}

func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	switch {
	case page <= 0:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	return (page - 1) * limit
}
