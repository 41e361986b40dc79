package ratelimit

import (
	"fmt"
)

// Config represents query budget configuration
type Config struct {
	// Window limits
	PerMinute int  `json:"per_minute"`
	PerHour   int  `json:"per_hour"`
	Enabled   bool `json:"enabled"`

	// Backend type
	Type BackendType `json:"type"`

	// Distributed backend settings
	KeyPrefix string `json:"key_prefix,omitempty"`
}

// BackendType defines the query budget backend
type BackendType string

const (
	BackendLocal       BackendType = "local"
	BackendDistributed BackendType = "distributed"
)

// Validate validates the configuration, filling defaults for zero values.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil // No validation needed if disabled
	}

	if c.PerMinute <= 0 {
		c.PerMinute = 10
	}
	if c.PerHour <= 0 {
		c.PerHour = 100
	}

	if c.Type == "" {
		c.Type = BackendLocal
	}

	switch c.Type {
	case BackendLocal:
		// No backend-specific settings
	case BackendDistributed:
		if c.KeyPrefix == "" {
			c.KeyPrefix = "stmcp:budget:"
		}
	default:
		return fmt.Errorf("unsupported query budget backend type: %s", c.Type)
	}

	return nil
}

// DefaultConfig returns a default query budget configuration
func DefaultConfig() Config {
	return Config{
		PerMinute: 10,
		PerHour:   100,
		Enabled:   true,
		Type:      BackendLocal,
		KeyPrefix: "stmcp:budget:",
	}
}
