package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	adminPortEnvVar   = "ADMIN_PORT"
	kioskPortEnvVar   = "KIOSK_PORT"
	appNameVar        = "APP_NAME"
	apiBaseURLVar     = "API_BASE_URL"
	bypassAuthVar     = "BYPASS_AUTH"
	verboseLoggingVar = "VERBOSE_LOGGING"
	debugOverlayVar   = "DEBUG_OVERLAY"
	tokenFileVar      = "TOKEN_FILE"
	tokenKeyVar       = "TOKEN_KEY"
	kioskTokenVar     = "KIOSK_ACCESS_TOKEN"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAdminPort() string {
	return listenAddr(GetEnv(adminPortEnvVar, "8080"))
}

func (EnvVars) GetKioskPort() string {
	return listenAddr(GetEnv(kioskPortEnvVar, "8081"))
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Cactus Garden")
}

// GetAPIBaseURL returns the garden REST API root without a trailing slash (e.g. "https://api.garden.example")
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8000"), "/")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetBypassAuth is only honoured in DEV.
func (e EnvVars) GetBypassAuth() bool {
	return e.GetEnv() == "DEV" && GetBool(bypassAuthVar, false)
}

func (EnvVars) GetVerboseLogging() bool {
	return GetBool(verboseLoggingVar, false)
}

func (EnvVars) GetDebugOverlay() bool {
	return GetBool(debugOverlayVar, false)
}

// GetTokenFile is where persisted client state lives. Empty keeps it in memory.
func (EnvVars) GetTokenFile() string {
	return GetEnv(tokenFileVar, "")
}

func (EnvVars) GetTokenKey() string {
	return GetEnv(tokenKeyVar, "")
}

func (EnvVars) GetKioskAccessToken() string {
	return GetEnv(kioskTokenVar, "")
}

func listenAddr(port string) string {
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
