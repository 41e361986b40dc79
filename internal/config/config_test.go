package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every configuration variable so tests see a clean
// environment regardless of the developer's shell. t.Setenv restores the
// originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"ST_CLIENT_ID", "ST_CLIENT_SECRET", "ST_APP_KEY", "ST_TENANT_ID",
		"ST_AUTH_URL", "ST_API_BASE",
		"ST_CONNECT_TIMEOUT", "ST_READ_TIMEOUT", "ST_TOTAL_TIMEOUT",
		"ST_MAX_RETRIES", "ST_TOKEN_REFRESH_BUFFER",
		"ST_MAX_QUERIES_PER_MINUTE", "ST_MAX_QUERIES_PER_HOUR", "ST_REDIS_URL",
		"ST_LOG_LEVEL", "ST_LOG_FILE", "ST_HEALTH_ADDR",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

// validConfig returns a configuration that passes Validate, for tests that
// break one field at a time.
func validConfig() *Config {
	return &Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		AppKey:       "ak1",
		TenantID:     "123456789",

		AuthURL: DefaultAuthURL,
		APIBase: DefaultAPIBase,

		ConnectTimeout:     5 * time.Second,
		ReadTimeout:        10 * time.Second,
		TotalTimeout:       30 * time.Second,
		MaxRetries:         3,
		TokenRefreshBuffer: 60 * time.Second,

		MaxQueriesPerMinute: 10,
		MaxQueriesPerHour:   100,

		LogLevel: "INFO",
		LogFile:  "logs/mcp_server.log",
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if config.AuthURL != "https://auth.servicetitan.io/connect/token" {
		t.Errorf("Load() AuthURL = %v, want production token endpoint", config.AuthURL)
	}
	if config.APIBase != "https://api.servicetitan.io" {
		t.Errorf("Load() APIBase = %v, want production API base", config.APIBase)
	}
	if config.ConnectTimeout != 5*time.Second {
		t.Errorf("Load() ConnectTimeout = %v, want 5s", config.ConnectTimeout)
	}
	if config.ReadTimeout != 10*time.Second {
		t.Errorf("Load() ReadTimeout = %v, want 10s", config.ReadTimeout)
	}
	if config.TotalTimeout != 30*time.Second {
		t.Errorf("Load() TotalTimeout = %v, want 30s", config.TotalTimeout)
	}
	if config.MaxRetries != 3 {
		t.Errorf("Load() MaxRetries = %v, want 3", config.MaxRetries)
	}
	if config.TokenRefreshBuffer != 60*time.Second {
		t.Errorf("Load() TokenRefreshBuffer = %v, want 60s", config.TokenRefreshBuffer)
	}
	if config.MaxQueriesPerMinute != 10 {
		t.Errorf("Load() MaxQueriesPerMinute = %v, want 10", config.MaxQueriesPerMinute)
	}
	if config.MaxQueriesPerHour != 100 {
		t.Errorf("Load() MaxQueriesPerHour = %v, want 100", config.MaxQueriesPerHour)
	}
	if config.RedisURL != "" {
		t.Errorf("Load() RedisURL = %v, want empty", config.RedisURL)
	}
	if config.LogLevel != "INFO" {
		t.Errorf("Load() LogLevel = %v, want INFO", config.LogLevel)
	}
	if config.LogFile != "logs/mcp_server.log" {
		t.Errorf("Load() LogFile = %v, want logs/mcp_server.log", config.LogFile)
	}
	if config.HealthAddr != "" {
		t.Errorf("Load() HealthAddr = %v, want empty", config.HealthAddr)
	}

	// Credentials have no defaults
	if config.ClientID != "" || config.ClientSecret != "" || config.AppKey != "" || config.TenantID != "" {
		t.Errorf("Load() credentials should be empty without environment variables")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ST_CLIENT_ID", "my-client")
	t.Setenv("ST_CLIENT_SECRET", "my-secret")
	t.Setenv("ST_APP_KEY", "my-app-key")
	t.Setenv("ST_TENANT_ID", "42")
	t.Setenv("ST_CONNECT_TIMEOUT", "2.5")
	t.Setenv("ST_MAX_RETRIES", "5")
	t.Setenv("ST_MAX_QUERIES_PER_MINUTE", "3")
	t.Setenv("ST_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ST_LOG_LEVEL", "DEBUG")
	t.Setenv("ST_HEALTH_ADDR", "127.0.0.1:8931")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if config.ClientID != "my-client" {
		t.Errorf("Load() ClientID = %v, want my-client", config.ClientID)
	}
	if config.TenantID != "42" {
		t.Errorf("Load() TenantID = %v, want 42", config.TenantID)
	}
	if config.ConnectTimeout != 2500*time.Millisecond {
		t.Errorf("Load() ConnectTimeout = %v, want 2.5s from fractional seconds", config.ConnectTimeout)
	}
	if config.MaxRetries != 5 {
		t.Errorf("Load() MaxRetries = %v, want 5", config.MaxRetries)
	}
	if config.MaxQueriesPerMinute != 3 {
		t.Errorf("Load() MaxQueriesPerMinute = %v, want 3", config.MaxQueriesPerMinute)
	}
	if config.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Load() RedisURL = %v, want redis://localhost:6379/0", config.RedisURL)
	}
	if config.LogLevel != "DEBUG" {
		t.Errorf("Load() LogLevel = %v, want DEBUG", config.LogLevel)
	}
	if config.HealthAddr != "127.0.0.1:8931" {
		t.Errorf("Load() HealthAddr = %v, want 127.0.0.1:8931", config.HealthAddr)
	}
}

func TestLoad_StripsTrailingSlashes(t *testing.T) {
	clearEnv(t)
	t.Setenv("ST_AUTH_URL", "https://auth.example.com/connect/token/")
	t.Setenv("ST_API_BASE", "https://api.example.com//")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if config.AuthURL != "https://auth.example.com/connect/token" {
		t.Errorf("Load() AuthURL = %v, want trailing slash removed", config.AuthURL)
	}
	if config.APIBase != "https://api.example.com" {
		t.Errorf("Load() APIBase = %v, want trailing slashes removed", config.APIBase)
	}
}

func TestLoad_MalformedNumbers(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"connect timeout not a number", "ST_CONNECT_TIMEOUT", "soon"},
		{"read timeout not a number", "ST_READ_TIMEOUT", "10s"},
		{"total timeout not a number", "ST_TOTAL_TIMEOUT", "1e"},
		{"refresh buffer not a number", "ST_TOKEN_REFRESH_BUFFER", "one minute"},
		{"retries not an integer", "ST_MAX_RETRIES", "3.5"},
		{"queries per minute not an integer", "ST_MAX_QUERIES_PER_MINUTE", "ten"},
		{"queries per hour not an integer", "ST_MAX_QUERIES_PER_HOUR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.value == "" {
				// Empty means unset, which must succeed with the default
				t.Setenv(tt.key, tt.value)
				if _, err := Load(); err != nil {
					t.Errorf("Load() with empty %s: error = %v, want nil", tt.key, err)
				}
				return
			}

			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%q: expected error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error %q should name %s", err.Error(), tt.key)
			}
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_RequiredCredentials(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantVar string
	}{
		{"missing client ID", func(c *Config) { c.ClientID = "" }, "ST_CLIENT_ID"},
		{"missing client secret", func(c *Config) { c.ClientSecret = "" }, "ST_CLIENT_SECRET"},
		{"missing app key", func(c *Config) { c.AppKey = "" }, "ST_APP_KEY"},
		{"missing tenant ID", func(c *Config) { c.TenantID = "" }, "ST_TENANT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Validate() expected error for missing credential")
			}
			if !strings.Contains(err.Error(), tt.wantVar) {
				t.Errorf("Validate() error %q should name %s", err.Error(), tt.wantVar)
			}
		})
	}
}

func TestValidate_TenantID(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		wantErr  bool
	}{
		{"digits only", "3222348440", false},
		{"single digit", "7", false},
		{"letters", "tenant-one", true},
		{"mixed", "123abc", true},
		{"spaces", "123 456", true},
		{"negative", "-123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			config.TenantID = tt.tenantID

			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() with TenantID=%q: expected error", tt.tenantID)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() with TenantID=%q: error = %v, want nil", tt.tenantID, err)
			}
		})
	}
}

func TestValidate_HTTPSRequired(t *testing.T) {
	config := validConfig()
	config.AuthURL = "http://auth.servicetitan.io/connect/token"
	if err := config.Validate(); err == nil || !strings.Contains(err.Error(), "ST_AUTH_URL") {
		t.Errorf("Validate() with plain-HTTP auth URL: error = %v, want ST_AUTH_URL https error", err)
	}

	config = validConfig()
	config.APIBase = "http://api.servicetitan.io"
	if err := config.Validate(); err == nil || !strings.Contains(err.Error(), "ST_API_BASE") {
		t.Errorf("Validate() with plain-HTTP API base: error = %v, want ST_API_BASE https error", err)
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"connect timeout lower bound", func(c *Config) { c.ConnectTimeout = 1 * time.Second }, false},
		{"connect timeout upper bound", func(c *Config) { c.ConnectTimeout = 30 * time.Second }, false},
		{"connect timeout too small", func(c *Config) { c.ConnectTimeout = 500 * time.Millisecond }, true},
		{"connect timeout too large", func(c *Config) { c.ConnectTimeout = 31 * time.Second }, true},

		{"read timeout bounds", func(c *Config) { c.ReadTimeout = 60 * time.Second }, false},
		{"read timeout too small", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"read timeout too large", func(c *Config) { c.ReadTimeout = 61 * time.Second }, true},

		{"total timeout lower bound", func(c *Config) { c.TotalTimeout = 5 * time.Second }, false},
		{"total timeout too small", func(c *Config) { c.TotalTimeout = 4 * time.Second }, true},
		{"total timeout too large", func(c *Config) { c.TotalTimeout = 121 * time.Second }, true},

		{"zero retries allowed", func(c *Config) { c.MaxRetries = 0 }, false},
		{"five retries allowed", func(c *Config) { c.MaxRetries = 5 }, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"too many retries", func(c *Config) { c.MaxRetries = 6 }, true},

		{"buffer lower bound", func(c *Config) { c.TokenRefreshBuffer = 10 * time.Second }, false},
		{"buffer upper bound", func(c *Config) { c.TokenRefreshBuffer = 300 * time.Second }, false},
		{"buffer too small", func(c *Config) { c.TokenRefreshBuffer = 9 * time.Second }, true},
		{"buffer too large", func(c *Config) { c.TokenRefreshBuffer = 301 * time.Second }, true},

		{"zero queries per minute", func(c *Config) { c.MaxQueriesPerMinute = 0 }, true},
		{"zero queries per hour", func(c *Config) { c.MaxQueriesPerHour = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestValidate_RedisURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty is optional", "", false},
		{"redis scheme", "redis://localhost:6379", false},
		{"rediss scheme", "rediss://cache.internal:6380/1", false},
		{"http scheme", "http://localhost:6379", true},
		{"bare address", "localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			config.RedisURL = tt.url

			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() with RedisURL=%q: expected error", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() with RedisURL=%q: error = %v, want nil", tt.url, err)
			}
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARNING", "WARN", "ERROR", "CRITICAL", "info", "Error"} {
		config := validConfig()
		config.LogLevel = level
		if err := config.Validate(); err != nil {
			t.Errorf("Validate() with LogLevel=%q: error = %v, want nil", level, err)
		}
	}

	config := validConfig()
	config.LogLevel = "VERBOSE"
	if err := config.Validate(); err == nil {
		t.Error("Validate() with LogLevel=VERBOSE: expected error")
	}
}

func TestValidate_HealthAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"empty disables", "", false},
		{"host and port", "127.0.0.1:8931", false},
		{"port only", ":8931", false},
		{"missing port", "127.0.0.1", true},
		{"garbage", "not an address", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			config.HealthAddr = tt.addr

			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() with HealthAddr=%q: expected error", tt.addr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() with HealthAddr=%q: error = %v, want nil", tt.addr, err)
			}
		})
	}
}
