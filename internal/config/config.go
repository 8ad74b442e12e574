// Package config provides configuration for the console and the development API
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the console
type Config struct {
	API     APIClientConfig
	Session SessionConfig
	Loading LoadingConfig
	Logging LoggingConfig
}

// APIClientConfig holds settings of the inventory API client
type APIClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RefreshTimeout time.Duration
	// HealthMaxWait bounds the startup health probe
	HealthMaxWait time.Duration
}

// SessionConfig holds session persistence settings.
// An empty RedisAddr keeps the session in memory only.
type SessionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
	TTL           time.Duration
}

// LoadingConfig holds loading indicator settings.
// An empty SkipList selects the built-in skip list.
type LoadingConfig struct {
	SkipList []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// Load reads the console configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// API configuration
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid API_BASE_URL: scheme must be http or https")
	}
	cfg.API.BaseURL = strings.TrimRight(baseURL, "/")

	var err error
	if cfg.API.Timeout, err = durationEnv("API_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.API.RefreshTimeout, err = durationEnv("API_REFRESH_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.API.HealthMaxWait, err = durationEnv("HEALTH_MAX_WAIT", "30s"); err != nil {
		return nil, err
	}

	// Session configuration
	cfg.Session.RedisAddr = os.Getenv("SESSION_REDIS_ADDR")         // optional
	cfg.Session.RedisPassword = os.Getenv("SESSION_REDIS_PASSWORD") // optional

	redisDBStr := os.Getenv("SESSION_REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_REDIS_DB: %w", err)
	}
	cfg.Session.RedisDB = redisDB

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		sessionKey = "console:session" // default
	}
	cfg.Session.Key = sessionKey

	if cfg.Session.TTL, err = durationEnv("SESSION_TTL", "168h"); err != nil {
		return nil, err
	}

	// Loading configuration
	cfg.Loading.SkipList = splitList(os.Getenv("LOADING_SKIP_LIST"))

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	return cfg, nil
}

// durationEnv reads a positive duration from the environment, falling back to def when unset
func durationEnv(key, def string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
