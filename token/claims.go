package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the unverified view of an access token payload. The front ends never
// hold a verification key; the API remains the only judge of a token's validity.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt *time.Time
}

// Decode parses raw without verifying its signature.
func Decode(raw string) (*Claims, bool) {
	if raw == "" {
		return nil, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims["sub"].(string)
	claims.Email, _ = mapClaims["email"].(string)

	// A non-numeric exp is an error here and is treated the same as a missing one.
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	return claims, true
}

// ExpiresAt reports the exp claim, if raw carries a numeric one.
func ExpiresAt(raw string) (time.Time, bool) {
	claims, ok := Decode(raw)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return *claims.ExpiresAt, true
}

// ExpiringSoon reports whether raw expires within window of now, boundary included.
// Tokens without a readable expiry are never "expiring soon".
func ExpiringSoon(raw string, now time.Time, window time.Duration) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return false
	}
	return !exp.After(now.Add(window))
}

// IsExpired reports whether raw is expired once skew is added to now.
// Unlike ExpiringSoon, an absent token or unreadable expiry counts as expired.
func IsExpired(raw string, now time.Time, skew time.Duration) bool {
	exp, ok := ExpiresAt(raw)
	if !ok {
		return true
	}
	return !exp.After(now.Add(skew))
}
