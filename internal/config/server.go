package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// ServerConfig holds all configuration for the development API
type ServerConfig struct {
	Database   DatabaseConfig
	HTTP       HTTPConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	Seed       SeedConfig
	Migrations string

	// TokenCleanupSchedule is the cron expression for purging expired refresh tokens
	TokenCleanupSchedule string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// HTTPConfig holds HTTP listener settings
type HTTPConfig struct {
	Port               int
	RateLimitPerMinute int
	MaxRequestSize     int64
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SeedConfig holds the optional administrator created at startup
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// LoadServer reads the development API configuration from environment variables
func LoadServer() (*ServerConfig, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &ServerConfig{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// HTTP configuration
	if cfg.HTTP.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.HTTP.RateLimitPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 300); err != nil {
		return nil, err
	}
	maxSize, err := intEnv("MAX_REQUEST_SIZE", 1<<20)
	if err != nil {
		return nil, err
	}
	cfg.HTTP.MaxRequestSize = int64(maxSize)

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenExpiry, err = durationEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"); err != nil {
		return nil, err
	}

	cleanup := os.Getenv("TOKEN_CLEANUP_SCHEDULE")
	if cleanup == "" {
		cleanup = "@hourly" // default
	}
	if _, err := cron.ParseStandard(cleanup); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_CLEANUP_SCHEDULE: %w", err)
	}
	cfg.TokenCleanupSchedule = cleanup

	// Seed administrator (optional, both or none)
	cfg.Seed.AdminEmail = os.Getenv("SEED_ADMIN_EMAIL")
	cfg.Seed.AdminPassword = os.Getenv("SEED_ADMIN_PASSWORD")
	if (cfg.Seed.AdminEmail == "") != (cfg.Seed.AdminPassword == "") {
		return nil, fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together")
	}

	migrations := os.Getenv("MIGRATIONS_PATH")
	if migrations == "" {
		migrations = "file://migrations" // default
	}
	cfg.Migrations = migrations

	return cfg, nil
}

// DSN returns the database connection string
func (c *ServerConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// intEnv reads a positive integer from the environment, falling back to def when unset
func intEnv(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}
