// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// Config holds all environment configuration.
type Config struct {
	Port             int
	SweepInterval    time.Duration
	EnforceRetention bool
	LogLevel         string
	ShutdownTimeout  time.Duration
}

// helper: read env var as int seconds → convert to duration
func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(name); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if value, exists := os.LookupEnv(name); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(name); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultVal
}

func getEnv(name, defaultVal string) string {
	if value, exists := os.LookupEnv(name); exists {
		return value
	}
	return defaultVal
}

// Load reads configuration from the environment, applying defaults and
// validating ranges.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvAsInt("PORT", 9324),
		SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", 1*time.Second),
		EnforceRetention: getEnvAsBool("ENFORCE_RETENTION", true),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.Newf("invalid PORT: %d", cfg.Port)
	}
	if cfg.SweepInterval < 0 {
		return nil, errors.Newf("invalid SWEEP_INTERVAL: %s", cfg.SweepInterval)
	}

	return cfg, nil
}
