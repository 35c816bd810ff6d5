package config

import "time"

type CacheConfig interface {
	GetCacheTTL() time.Duration
}

type RetryConfig interface {
	GetRetryMaxAttempts() int
	GetRetryInitialInterval() time.Duration
	GetRetryMaxInterval() time.Duration
}

type Cache struct{}

var _ CacheConfig = Cache{}

func (Cache) GetCacheTTL() time.Duration {
	return 5 * time.Minute
}

type Retry struct{}

var _ RetryConfig = Retry{}

func (Retry) GetRetryMaxAttempts() int {
	return 3
}

func (Retry) GetRetryInitialInterval() time.Duration {
	return 250 * time.Millisecond
}

func (Retry) GetRetryMaxInterval() time.Duration {
	return 2 * time.Second
}
