package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads an optional .env file and an optional YAML overlay into the process
// environment. Variables already set in the environment always win.
func Load(envFile, overlayFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("[config Load] %s: %w", envFile, err)
		}
	}
	if overlayFile == "" {
		return nil
	}
	return applyOverlay(overlayFile)
}

// Overlay files are flat maps of env var name to value, e.g.
//
//	API_BASE_URL: https://api.garden.example
//	VERBOSE_LOGGING: true
func applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("[config applyOverlay] read %s: %w", path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("[config applyOverlay] parse %s: %w", path, err)
	}

	for k, v := range values {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("[config applyOverlay] set %s: %w", k, err)
		}
	}
	return nil
}
