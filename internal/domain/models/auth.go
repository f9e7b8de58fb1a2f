package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of access tokens issued by this service.
// IssuedAt is compared against the user's forced logout cutoff.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *TokenClaims) GetUserID() string {
	return c.Subject
}

// Principal is the authenticated caller attached to a request
type Principal struct {
	User        *User
	Permissions map[string]bool
}

// Has reports whether the principal holds any of the given permission slugs
func (p *Principal) Has(slugs ...string) bool {
	if p == nil || p.User == nil {
		return false
	}
	if p.User.IsAdmin() {
		return true
	}
	for _, s := range slugs {
		if p.Permissions[s] {
			return true
		}
	}
	return false
}
