package auth

import "titledesk/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// The middleware depends on this rather than on a concrete signing scheme.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.TokenClaims, error)
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	// IssueToken returns a signed token for the user and its expiry time
	IssueToken(user *models.User) (string, int64, error)
}
