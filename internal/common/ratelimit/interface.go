package ratelimit

import (
	"context"
)

// Limiter is the query budget interface.
//
// Acquire consumes one permit from every window or returns a rate limit
// error with a retry hint, without blocking. Stats and Health feed the
// diagnostics endpoint.
type Limiter interface {
	Acquire(ctx context.Context) error

	Stats() map[string]interface{}
	Health() error
	Close() error
}
