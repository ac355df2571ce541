package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends
const (
	SessionBackendDatabase = "database"
	SessionBackendRedis    = "redis"
	SessionBackendMemory   = "memory"
)

// Ticket list filter modes understood by the remote API
const (
	TicketFilterPath  = "path"
	TicketFilterQuery = "query"
)

// Config holds all application configuration
type Config struct {
	APIBaseURL          string
	APITimeout          time.Duration
	Port                string
	GoEnv               string
	LogLevel            string
	LogFormat           string
	SessionBackend      string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	PaymentPollInterval time.Duration
	TicketFilterMode    string
	TicketExpertise     []string
	CORSOrigins         []string
	Auth0Domain         string
	Auth0Audience       string
	AWSRegion           string
	AWSS3Bucket         string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	OTLPEndpoint        string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// Deployed consoles get their environment injected directly
			slog.Debug("no .env file found, using system environment variables")
		}
	} else {
		slog.Debug("loaded configuration", "file", envFile)
	}

	cfg := &Config{
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8021/api"), "/"),
		Port:                getEnv("PORT", "8080"),
		GoEnv:               getEnv("GO_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		SessionBackend:      getEnv("SESSION_BACKEND", SessionBackendDatabase),
		DatabaseURL:         getEnv("DATABASE_URL", "console.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		TicketFilterMode:    getEnv("TICKET_FILTER_MODE", TicketFilterPath),
		TicketExpertise:     splitList(getEnv("TICKET_EXPERTISE", "Networking,CCTV")),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Auth0Domain:         getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:       getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.PaymentPollInterval, err = getDuration("PAYMENT_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.SessionBackend {
	case SessionBackendDatabase:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s session backend", c.SessionBackend)
		}
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s session backend", c.SessionBackend)
		}
	case SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of %s, %s, %s (got %q)",
			SessionBackendDatabase, SessionBackendRedis, SessionBackendMemory, c.SessionBackend)
	}
	if c.TicketFilterMode != TicketFilterPath && c.TicketFilterMode != TicketFilterQuery {
		return fmt.Errorf("TICKET_FILTER_MODE must be %q or %q (got %q)", TicketFilterPath, TicketFilterQuery, c.TicketFilterMode)
	}
	if c.PaymentPollInterval <= 0 {
		return fmt.Errorf("PAYMENT_POLL_INTERVAL must be positive")
	}
	if len(c.TicketExpertise) == 0 {
		return fmt.Errorf("TICKET_EXPERTISE must list at least one expertise")
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// OperatorGateEnabled returns true if /admin routes also require an Auth0 operator token
func (c *Config) OperatorGateEnabled() bool {
	return c.Auth0Domain != ""
}

// ExportEnabled returns true if ticket reports can be exported to S3
func (c *Config) ExportEnabled() bool {
	return c.AWSS3Bucket != ""
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return current
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 5s: %w", key, err)
	}
	return value, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// splitList splits a comma separated value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
