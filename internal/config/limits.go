package config

const (
	// MaxNameLength is the maximum length for names of companies, branches,
	// roles, users and applicants. Fits PostgreSQL VARCHAR(255).
	MaxNameLength = 255

	// MaxQueryMessageLength bounds the text of a raised query.
	MaxQueryMessageLength = 5000

	// DefaultPageSize is used when a list request has no limit.
	DefaultPageSize = 20

	// MaxPageSize caps list requests.
	MaxPageSize = 100

	// MaxUploadSize is the largest file accepted for cloud upload (50 MiB).
	MaxUploadSize = 50 << 20

	// MinPasswordLength applies to registration, reset and change-password.
	MinPasswordLength = 8
)
