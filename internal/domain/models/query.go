package models

import "time"

// QueryStatus is the resolution state of a raised query
type QueryStatus string

const (
	QueryOpen     QueryStatus = "open"
	QueryResolved QueryStatus = "resolved"
)

// Query is an issue raised against an application that needs resolution
type Query struct {
	ID            string      `json:"id" db:"id"`
	ApplicationID string      `json:"applicationId" db:"application_id"`
	Message       string      `json:"message" db:"message"`
	Status        QueryStatus `json:"status" db:"status"`
	RaisedBy      *string     `json:"raisedBy,omitempty" db:"raised_by"`
	ResolvedBy    *string     `json:"resolvedBy" db:"resolved_by"`
	ResolvedDate  *time.Time  `json:"resolvedDate" db:"resolved_date"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// Resolve marks the query resolved by userID at the given time
func (q *Query) Resolve(userID string, at time.Time) {
	q.Status = QueryResolved
	q.ResolvedBy = &userID
	q.ResolvedDate = &at
	q.UpdatedAt = at
}

// Unresolve reopens the query and clears resolution fields
func (q *Query) Unresolve(at time.Time) {
	q.Status = QueryOpen
	q.ResolvedBy = nil
	q.ResolvedDate = nil
	q.UpdatedAt = at
}
