package auth

import (
	"context"
	"fmt"

	"titledesk/internal/domain"
	"titledesk/internal/domain/models"
	"titledesk/internal/domain/repositories"
	"titledesk/internal/domain/services"
)

// CompanyScopeAuthorizer implements ScopeResolver from user-company assignments.
// Assignments are stored by company ID; applications reference companies by name.
type CompanyScopeAuthorizer struct {
	companyRepo repositories.CompanyRepository
}

// NewCompanyScopeAuthorizer creates a new company scope authorizer
func NewCompanyScopeAuthorizer(companyRepo repositories.CompanyRepository) services.ScopeResolver {
	return &CompanyScopeAuthorizer{companyRepo: companyRepo}
}

// CompanyNames resolves the principal's assigned company IDs to names
func (a *CompanyScopeAuthorizer) CompanyNames(ctx context.Context, p *models.Principal) ([]string, error) {
	if p == nil || p.User == nil {
		return nil, domain.ErrUnauthorized
	}
	if p.User.IsAdmin() {
		return nil, nil
	}
	if len(p.User.AssignedCompanyIDs) == 0 {
		return []string{}, nil
	}

	names, err := a.companyRepo.NamesByIDs(ctx, p.User.AssignedCompanyIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve company scope: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// CanAccessCompany checks companyName against the principal's scope
func (a *CompanyScopeAuthorizer) CanAccessCompany(ctx context.Context, p *models.Principal, companyName string) error {
	names, err := a.CompanyNames(ctx, p)
	if err != nil {
		return err
	}
	if InScope(names, companyName) {
		return nil
	}
	return fmt.Errorf("company %q is outside your scope: %w", companyName, domain.ErrForbidden)
}

// InScope reports whether companyName is allowed by names (nil allows everything)
func InScope(names []string, companyName string) bool {
	if names == nil {
		return true
	}
	for _, n := range names {
		if n == companyName {
			return true
		}
	}
	return false
}
