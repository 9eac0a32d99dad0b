package identity

import (
	"context"
	"time"
)

// Principal is the signed-in administrator.
type Principal struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the principal's ID token has lapsed at now.
func (p Principal) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// Session is what a provider hands back after a successful sign-in.
type Session struct {
	Principal    Principal
	IDToken      string
	RefreshToken string
}

// Provider is the remote auth backend behind the gate.
type Provider interface {
	// SignIn exchanges credentials for a session. Rejections are *LoginError.
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context) error
	// Watch delivers the current session (nil when signed out) and every
	// change after it until stop is called or ctx ends.
	Watch(ctx context.Context, fn func(*Session)) (stop func(), err error)
	// Verify checks an ID token presented by a caller.
	Verify(ctx context.Context, idToken string) (Principal, error)
}
