// Package utils provides utility functions for the ServiceTitan MCP server.
//
// This package contains common utilities for invocation ID generation,
// retry logic, date manipulation, and string helpers used throughout the
// application.
package utils

import (
	"fmt"

	"github.com/lucsky/cuid"
)

// NewInvocationID generates a unique correlation ID for one tool invocation.
//
// The ID is attached to the invocation's context so every log line it
// produces can be tied back together. Format: "inv-" followed by a cuid,
// e.g. "inv-cjld2cjxh0000qzrmn831i7rn".
func NewInvocationID() string {
	return fmt.Sprintf("inv-%s", cuid.New())
}

// NewInvocationSlug generates a short collision-resistant ID for log file
// names and similar low-volume uses.
func NewInvocationSlug() string {
	return cuid.Slug()
}
