package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the engine configuration
type Config struct {
	// Remote achievements service
	APIBaseURL     string
	APIKey         string
	RequestTimeout time.Duration

	// User whose progress this instance tracks
	UserID string

	// Durable local store
	StorePath      string
	DeadLetterPath string

	// Connectivity probe
	ProbeURL      string
	ProbeInterval time.Duration

	// Diagnostics listener
	DiagnosticsPort int

	// Logging
	LogLevel    string
	LogFormat   string
	Environment string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     getEnv("PROGRESS_API_URL", "http://localhost:3000/api"),
		APIKey:         getEnv("PROGRESS_API_KEY", ""),
		RequestTimeout: getEnvAsDuration("PROGRESS_REQUEST_TIMEOUT", 10*time.Second),
		UserID:         getEnv("PROGRESS_USER_ID", ""),
		StorePath:      getEnv("PROGRESS_STORE_PATH", "progress.db"),
		DeadLetterPath: getEnv("PROGRESS_DEAD_LETTER_PATH", "progress_dead_letter.jsonl"),
		ProbeURL:       getEnv("PROGRESS_PROBE_URL", ""),
		ProbeInterval:  getEnvAsDuration("PROGRESS_PROBE_INTERVAL", 30*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		Environment:    getEnv("ENVIRONMENT", "dev"),
	}

	cfg.DiagnosticsPort = getEnvAsInt("PROGRESS_DIAGNOSTICS_PORT", 8086)

	if cfg.UserID == "" {
		return nil, fmt.Errorf("PROGRESS_USER_ID environment variable must be set")
	}

	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("invalid PROGRESS_REQUEST_TIMEOUT value: must be positive")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration retrieves a duration environment variable or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
