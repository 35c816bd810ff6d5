package config

import "time"

type SessionConfig interface {
	GetRefreshWindow() time.Duration
	GetRefreshCheckInterval() time.Duration
	GetExpirySkew() time.Duration
	GetTokenStorageKey() string
	GetSessionCookieName() string
	GetSessionMaxAge() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshWindow is how close to expiry a token may get before a request refreshes it first.
func (Session) GetRefreshWindow() time.Duration {
	return 5 * time.Minute
}

func (Session) GetRefreshCheckInterval() time.Duration {
	return 60 * time.Second
}

// GetExpirySkew is the grace applied by the background check when deciding a token has expired.
func (Session) GetExpirySkew() time.Duration {
	return 60 * time.Second
}

func (Session) GetTokenStorageKey() string {
	return "access_token"
}

func (Session) GetSessionCookieName() string {
	return "garden_session"
}

func (Session) GetSessionMaxAge() time.Duration {
	return 12 * time.Hour
}
