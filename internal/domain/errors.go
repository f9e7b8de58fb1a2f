package domain

import "errors"

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrUnavailable marks a failure of an upstream dependency such as the cloud drive
	ErrUnavailable = errors.New("upstream service unavailable")
)

// ConflictError is a conflict that names the clashing resource, or the
// dependents that block a delete.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // application, role, company, ...
	ResourceID   string // ID of the existing/conflicting resource, if known
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrConflict) match
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
