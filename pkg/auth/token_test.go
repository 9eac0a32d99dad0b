package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claims IDTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInspectIDTokenReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := mintToken(t, IDTokenClaims{
		UserID: "uid-1",
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	claims, err := InspectIDToken(raw)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.UID() != "uid-1" || claims.Email != "admin@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	got, err := ExpiresAt(raw)
	if err != nil {
		t.Fatalf("expires at: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("expected expiry %v got %v", exp, got)
	}
}

func TestInspectIDTokenAcceptsExpiredTokens(t *testing.T) {
	raw := mintToken(t, IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	claims, err := InspectIDToken(raw)
	if err != nil {
		t.Fatalf("expired tokens should still decode: %v", err)
	}
	if claims.UID() != "uid-2" {
		t.Fatalf("expected subject fallback, got %q", claims.UID())
	}
	if !Expired(raw, time.Now(), 0) {
		t.Fatalf("expected token to be expired")
	}
}

func TestExpiredWithSkew(t *testing.T) {
	now := time.Now()
	raw := mintToken(t, IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Second))},
	})
	if Expired(raw, now, 0) {
		t.Fatalf("token should still be valid")
	}
	if !Expired(raw, now, time.Minute) {
		t.Fatalf("token inside skew should count as expired")
	}
}

func TestExpiresAtRejectsGarbage(t *testing.T) {
	if _, err := InspectIDToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if _, err := ExpiresAt("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
	if !Expired("not-a-jwt", time.Now(), 0) {
		t.Fatalf("malformed tokens count as expired")
	}

	raw := mintToken(t, IDTokenClaims{UserID: "uid-3"})
	if _, err := ExpiresAt(raw); err != ErrTokenWithoutExpiry {
		t.Fatalf("expected ErrTokenWithoutExpiry, got %v", err)
	}
}
