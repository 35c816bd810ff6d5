// Package tokentest mints signed test tokens for packages that only decode claims.
package tokentest

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-only-secret")

// WithExpiry returns an HS256 token for sub expiring at exp.
func WithExpiry(sub string, exp time.Time) string {
	return sign(jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@garden.test",
		"exp":   exp.Unix(),
	})
}

// WithoutExpiry returns a token that carries no exp claim.
func WithoutExpiry(sub string) string {
	return sign(jwt.MapClaims{"sub": sub})
}

// WithClaims signs arbitrary claims.
func WithClaims(claims jwt.MapClaims) string {
	return sign(claims)
}

func sign(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		panic(err)
	}
	return signed
}
