package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims is the subset of a Firebase ID token the storefront reads
// locally. Signature checks are left to the auth backend.
type IDTokenClaims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// UID returns the principal identifier, falling back to the subject claim.
func (c *IDTokenClaims) UID() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
