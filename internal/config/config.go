// Package config provides configuration management for the ServiceTitan MCP server.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the server starts safely.
//
// All settings come from the environment (optionally seeded from a .env file by the
// caller). Credentials are required and have no defaults; everything else defaults
// to values suitable for production use.
//
// Environment Variables:
//
// ServiceTitan Credentials (required):
//   - ST_CLIENT_ID: OAuth client ID
//   - ST_CLIENT_SECRET: OAuth client secret
//   - ST_APP_KEY: Application key sent with every API request
//   - ST_TENANT_ID: Numeric tenant identifier
//
// Endpoints:
//   - ST_AUTH_URL: Token endpoint (default: https://auth.servicetitan.io/connect/token)
//   - ST_API_BASE: API base URL (default: https://api.servicetitan.io)
//
// HTTP Behavior:
//   - ST_CONNECT_TIMEOUT: Connection timeout in seconds, may be fractional (default: 5)
//   - ST_READ_TIMEOUT: Response header timeout in seconds (default: 10)
//   - ST_TOTAL_TIMEOUT: Whole-request timeout in seconds (default: 30)
//   - ST_MAX_RETRIES: Retries after a failed connection attempt, 0-5 (default: 3)
//   - ST_TOKEN_REFRESH_BUFFER: Seconds before expiry a token is considered stale (default: 60)
//
// Query Budget:
//   - ST_MAX_QUERIES_PER_MINUTE: Upstream queries allowed per minute (default: 10)
//   - ST_MAX_QUERIES_PER_HOUR: Upstream queries allowed per hour (default: 100)
//   - ST_REDIS_URL: Redis URL for a budget shared across instances (optional)
//
// Observability:
//   - ST_LOG_LEVEL: Logging level (default: INFO)
//   - ST_LOG_FILE: Log file path (default: logs/mcp_server.log)
//   - ST_HEALTH_ADDR: Listen address for the health endpoint, empty disables it
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatalf("Configuration error: %v", err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default endpoints for the production ServiceTitan environment.
const (
	DefaultAuthURL = "https://auth.servicetitan.io/connect/token"
	DefaultAPIBase = "https://api.servicetitan.io"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Config holds all configuration values for the ServiceTitan MCP server.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// ServiceTitan credentials
	ClientID     string // OAuth client ID (required)
	ClientSecret string // OAuth client secret (required)
	AppKey       string // Application key header value (required)
	TenantID     string // Numeric tenant identifier (required)

	// Endpoints, normalized without trailing slashes
	AuthURL string // OAuth token endpoint
	APIBase string // API base URL

	// HTTP behavior
	ConnectTimeout     time.Duration // TCP connect timeout
	ReadTimeout        time.Duration // Response header timeout
	TotalTimeout       time.Duration // Whole-request timeout including body
	MaxRetries         int           // Retries after transport failures (0 disables)
	TokenRefreshBuffer time.Duration // Refresh tokens this long before expiry

	// Query budget
	MaxQueriesPerMinute int    // Upstream queries allowed per minute
	MaxQueriesPerHour   int    // Upstream queries allowed per hour
	RedisURL            string // Redis URL for a shared budget, empty = local only

	// Observability
	LogLevel   string // Logging level (DEBUG, INFO, WARNING, ERROR, CRITICAL)
	LogFile    string // Log file path, stderr fallback if unwritable
	HealthAddr string // Health endpoint listen address, empty disables
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// Malformed numeric values fail immediately rather than silently falling back,
// so a typo in a timeout cannot weaken production settings. Load does not check
// required fields or value ranges - call Validate() for that.
//
// Returns:
//   - *Config: A new configuration instance with values from environment variables
//   - error: A descriptive error if a numeric variable cannot be parsed
func Load() (*Config, error) {
	cfg := &Config{
		ClientID:     getEnv("ST_CLIENT_ID", ""),
		ClientSecret: getEnv("ST_CLIENT_SECRET", ""),
		AppKey:       getEnv("ST_APP_KEY", ""),
		TenantID:     getEnv("ST_TENANT_ID", ""),

		AuthURL: strings.TrimRight(getEnv("ST_AUTH_URL", DefaultAuthURL), "/"),
		APIBase: strings.TrimRight(getEnv("ST_API_BASE", DefaultAPIBase), "/"),

		RedisURL: getEnv("ST_REDIS_URL", ""),

		LogLevel:   getEnv("ST_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("ST_LOG_FILE", "logs/mcp_server.log"),
		HealthAddr: getEnv("ST_HEALTH_ADDR", ""),
	}

	var err error
	if cfg.ConnectTimeout, err = getSecondsEnv("ST_CONNECT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getSecondsEnv("ST_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.TotalTimeout, err = getSecondsEnv("ST_TOTAL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshBuffer, err = getSecondsEnv("ST_TOKEN_REFRESH_BUFFER", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getIntEnv("ST_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.MaxQueriesPerMinute, err = getIntEnv("ST_MAX_QUERIES_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.MaxQueriesPerHour, err = getIntEnv("ST_MAX_QUERIES_PER_HOUR", 100); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getSecondsEnv retrieves a duration expressed as a number of seconds.
//
// The value may be fractional ("2.5" means 2.5 seconds). An unset or empty
// variable yields the default; a malformed value is an error.
func getSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number of seconds, got %q", key, value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// getIntEnv retrieves an integer environment variable value.
//
// An unset or empty variable yields the default; a malformed value is an error.
func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

// Validate performs comprehensive validation on the configuration to ensure
// all required fields are present and all values are valid.
//
// This method checks:
//   - Required credentials (ST_CLIENT_ID, ST_CLIENT_SECRET, ST_APP_KEY, ST_TENANT_ID)
//   - Endpoint URLs use HTTPS
//   - Timeouts, retries, and budgets fall within safe ranges
//
// The server should call this method after loading configuration and before
// opening any connections.
//
// Returns:
//   - error: A descriptive error if validation fails, nil if configuration is valid
func (c *Config) Validate() error {
	// Validate required credentials
	if c.ClientID == "" {
		return fmt.Errorf("ST_CLIENT_ID environment variable is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("ST_CLIENT_SECRET environment variable is required")
	}
	if c.AppKey == "" {
		return fmt.Errorf("ST_APP_KEY environment variable is required")
	}
	if c.TenantID == "" {
		return fmt.Errorf("ST_TENANT_ID environment variable is required")
	}
	if !digitsOnly.MatchString(c.TenantID) {
		return fmt.Errorf("ST_TENANT_ID must contain only digits")
	}

	// Validate endpoints. Credentials travel on every request, so plain HTTP
	// is never acceptable.
	if !strings.HasPrefix(c.AuthURL, "https://") {
		return fmt.Errorf("ST_AUTH_URL must use https")
	}
	if !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("ST_API_BASE must use https")
	}

	// Validate HTTP behavior ranges
	if c.ConnectTimeout < 1*time.Second || c.ConnectTimeout > 30*time.Second {
		return fmt.Errorf("ST_CONNECT_TIMEOUT must be between 1 and 30 seconds")
	}
	if c.ReadTimeout < 1*time.Second || c.ReadTimeout > 60*time.Second {
		return fmt.Errorf("ST_READ_TIMEOUT must be between 1 and 60 seconds")
	}
	if c.TotalTimeout < 5*time.Second || c.TotalTimeout > 120*time.Second {
		return fmt.Errorf("ST_TOTAL_TIMEOUT must be between 5 and 120 seconds")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 5 {
		return fmt.Errorf("ST_MAX_RETRIES must be between 0 and 5")
	}
	if c.TokenRefreshBuffer < 10*time.Second || c.TokenRefreshBuffer > 300*time.Second {
		return fmt.Errorf("ST_TOKEN_REFRESH_BUFFER must be between 10 and 300 seconds")
	}

	// Validate query budget
	if c.MaxQueriesPerMinute < 1 {
		return fmt.Errorf("ST_MAX_QUERIES_PER_MINUTE must be a positive number")
	}
	if c.MaxQueriesPerHour < 1 {
		return fmt.Errorf("ST_MAX_QUERIES_PER_HOUR must be a positive number")
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		return fmt.Errorf("ST_REDIS_URL must start with redis:// or rediss://")
	}

	// Validate observability settings
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL":
		// Valid log levels
	default:
		return fmt.Errorf("ST_LOG_LEVEL must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL")
	}
	if c.HealthAddr != "" {
		if _, _, err := net.SplitHostPort(c.HealthAddr); err != nil {
			return fmt.Errorf("ST_HEALTH_ADDR must be a host:port address")
		}
	}

	return nil
}
