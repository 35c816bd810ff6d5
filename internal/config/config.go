package config

// Config is the full configuration surface shared by the admin and kiosk front ends.
// It is built once at startup and passed down explicitly.
type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	CacheConfig
	RetryConfig
}

type EnvConfig interface {
	GetAdminPort() string
	GetKioskPort() string
	GetAppName() string
	GetAPIBaseURL() string
	GetEnv() string
	GetBypassAuth() bool
	GetVerboseLogging() bool
	GetDebugOverlay() bool
	GetTokenFile() string
	GetTokenKey() string
	GetKioskAccessToken() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Cache
	Retry
}

func New() Config {
	return mainConfig{}
}
