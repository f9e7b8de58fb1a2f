package services

import (
	"context"

	"titledesk/internal/domain/models"
)

// ScopeResolver decides which companies' applications a principal may see.
// Current implementation: admins see all, everyone else sees assigned companies.
type ScopeResolver interface {
	// CompanyNames returns nil for an unrestricted principal, otherwise the
	// names of the assigned companies (possibly empty).
	CompanyNames(ctx context.Context, p *models.Principal) ([]string, error)

	// CanAccessCompany returns ErrForbidden when companyName is outside the principal's scope
	CanAccessCompany(ctx context.Context, p *models.Principal, companyName string) error
}
