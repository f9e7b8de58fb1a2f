package models

import "time"

// ApplicationStatus is the workflow state of a title file
type ApplicationStatus string

const (
	StatusLogin     ApplicationStatus = "Login"
	StatusQuery     ApplicationStatus = "Query"
	StatusBlocked   ApplicationStatus = "Blocked"
	StatusTSRPDF    ApplicationStatus = "TSRPDF"
	StatusModify    ApplicationStatus = "Modify"
	StatusCompleted ApplicationStatus = "Completed"

	// StatusDeleted marks a soft-deleted application. It is never accepted from clients.
	StatusDeleted ApplicationStatus = "deleted"
)

// WorkflowStatuses lists the statuses a client may set, in workflow order
var WorkflowStatuses = []ApplicationStatus{
	StatusLogin,
	StatusQuery,
	StatusBlocked,
	StatusTSRPDF,
	StatusModify,
	StatusCompleted,
}

// IsWorkflowStatus reports whether s is a client-settable status
func IsWorkflowStatus(s ApplicationStatus) bool {
	for _, v := range WorkflowStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Application is one property title file tracked through the workflow
type Application struct {
	ID              string            `json:"id" db:"id"`
	FileNumber      string            `json:"fileNumber" db:"file_number"`
	Status          ApplicationStatus `json:"status" db:"status"`
	CompanyName     string            `json:"companyName" db:"company_name"`
	BranchName      string            `json:"branchName" db:"branch_name"`
	ApplicantName   string            `json:"applicantName" db:"applicant_name"`
	OwnerName       string            `json:"ownerName" db:"owner_name"`
	PropertyAddress string            `json:"propertyAddress" db:"property_address"`
	Remarks         *string           `json:"remarks,omitempty" db:"remarks"`
	CreatedBy       *string           `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt       time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time         `json:"updatedAt" db:"updated_at"`
}

// IsDeleted reports whether the application has been soft-deleted
func (a *Application) IsDeleted() bool {
	return a.Status == StatusDeleted
}

// ApplicationSortField whitelists sortable columns
type ApplicationSortField string

const (
	SortByCreatedAt  ApplicationSortField = "created_at"
	SortByFileNumber ApplicationSortField = "file_number"
	SortByStatus     ApplicationSortField = "status"
)

// ApplicationFilter configures the applications list query
type ApplicationFilter struct {
	// Status narrows to one workflow status. Soft-deleted rows are never listed.
	Status   ApplicationStatus
	Company  string
	Branch   string
	Search   string
	From     *time.Time
	To       *time.Time
	SortBy   ApplicationSortField
	SortDesc bool
	Page     int
	Limit    int

	// CompanyNames restricts results to these companies when non-nil.
	// A non-nil empty slice matches nothing.
	CompanyNames []string
}

// ApplyDefaults fills in pagination and sort defaults
func (f *ApplicationFilter) ApplyDefaults(defaultLimit, maxLimit int) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, defaultLimit, maxLimit)
	switch f.SortBy {
	case SortByCreatedAt, SortByFileNumber, SortByStatus:
	default:
		f.SortBy = SortByCreatedAt
		f.SortDesc = true
	}
}

// Offset returns the row offset for the current page
func (f *ApplicationFilter) Offset() int {
	return pageOffset(f.Page, f.Limit)
}

// Page is a generic paginated result
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// EmptyPage returns a page with no items (never a nil slice)
func EmptyPage[T any](page, limit int) *Page[T] {
	return &Page[T]{Items: []T{}, Total: 0, Page: page, Limit: limit}
}
