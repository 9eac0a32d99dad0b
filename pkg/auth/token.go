package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenWithoutExpiry = errors.New("token has no expiry")

// InspectIDToken decodes the claims of an ID token without verifying its
// signature. Use it only for local scheduling decisions such as expiry.
func InspectIDToken(raw string) (*IDTokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("id token is required")
	}

	claims := &IDTokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("decoding id token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the expiry instant carried by the token.
func ExpiresAt(raw string) (time.Time, error) {
	claims, err := InspectIDToken(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenWithoutExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token expires within skew of now. Undecodable
// tokens count as expired.
func Expired(raw string, now time.Time, skew time.Duration) bool {
	exp, err := ExpiresAt(raw)
	if err != nil {
		return true
	}
	return !now.Add(skew).Before(exp)
}
