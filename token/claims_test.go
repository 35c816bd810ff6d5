package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/cactus-garden/token"
	"github.com/jrsteele09/cactus-garden/token/tokentest"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestDecode(t *testing.T) {
	raw := tokentest.WithExpiry("user-1", now.Add(time.Hour))

	claims, ok := token.Decode(raw)
	require.True(t, ok)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user-1@garden.test", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	require.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))

	_, ok = token.Decode("not-a-jwt")
	require.False(t, ok)
	_, ok = token.Decode("")
	require.False(t, ok)
}

func TestExpiringSoon_InclusiveBoundary(t *testing.T) {
	window := 5 * time.Minute

	require.True(t, token.ExpiringSoon(tokentest.WithExpiry("u", now.Add(window)), now, window))
	require.True(t, token.ExpiringSoon(tokentest.WithExpiry("u", now.Add(time.Minute)), now, window))
	require.True(t, token.ExpiringSoon(tokentest.WithExpiry("u", now.Add(-time.Minute)), now, window))
	require.False(t, token.ExpiringSoon(tokentest.WithExpiry("u", now.Add(window+time.Second)), now, window))
}

func TestExpiryAsymmetry_MissingExpiry(t *testing.T) {
	raw := tokentest.WithoutExpiry("u")

	require.False(t, token.ExpiringSoon(raw, now, 5*time.Minute), "no exp is not expiring soon")
	require.True(t, token.IsExpired(raw, now, 0), "no exp counts as expired")
}

func TestExpiryAsymmetry_NonNumericExpiry(t *testing.T) {
	raw := tokentest.WithClaims(jwt.MapClaims{"sub": "u", "exp": "tomorrow"})

	require.False(t, token.ExpiringSoon(raw, now, 5*time.Minute))
	require.True(t, token.IsExpired(raw, now, 0))
}

func TestIsExpired(t *testing.T) {
	require.True(t, token.IsExpired("", now, 0))
	require.False(t, token.IsExpired(tokentest.WithExpiry("u", now.Add(2*time.Minute)), now, time.Minute))
	require.True(t, token.IsExpired(tokentest.WithExpiry("u", now.Add(30*time.Second)), now, time.Minute))
	require.True(t, token.IsExpired(tokentest.WithExpiry("u", now), now, 0))
}
