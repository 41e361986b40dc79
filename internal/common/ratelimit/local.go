package ratelimit

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"

	"servicetitan-mcp/internal/common/errors"
)

// localLimiter implements the query budget using golang.org/x/time/rate
type localLimiter struct {
	config Config

	// One token bucket per window, draining at the window's steady rate
	minute *rate.Limiter
	hour   *rate.Limiter
}

// NewLocalLimiter creates a new in-memory query budget using golang.org/x/time/rate
func NewLocalLimiter(config Config) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	rl := &localLimiter{config: config}
	if config.Enabled {
		rl.minute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.PerMinute)), config.PerMinute)
		rl.hour = rate.NewLimiter(rate.Every(time.Hour/time.Duration(config.PerHour)), config.PerHour)
	}

	return rl, nil
}

// Acquire consumes one permit from both windows, or refuses with a retry hint.
//
// The minute window is checked first since it recovers sooner. When the hour
// window refuses after the minute window granted, the minute permit is
// returned so the refusal does not burn capacity.
func (rl *localLimiter) Acquire(_ context.Context) error {
	if !rl.config.Enabled {
		return nil
	}

	minuteRes := rl.minute.Reserve()
	if delay := minuteRes.Delay(); delay > 0 {
		minuteRes.Cancel()
		return errors.RateLimitError("query budget exhausted for this minute", ceilSeconds(delay))
	}

	hourRes := rl.hour.Reserve()
	if delay := hourRes.Delay(); delay > 0 {
		hourRes.Cancel()
		minuteRes.Cancel()
		return errors.RateLimitError("query budget exhausted for this hour", ceilSeconds(delay))
	}

	return nil
}

// ceilSeconds rounds a delay up to whole seconds, never below one.
func ceilSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Stats returns query budget statistics
func (rl *localLimiter) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"type":       "local",
		"enabled":    rl.config.Enabled,
		"per_minute": rl.config.PerMinute,
		"per_hour":   rl.config.PerHour,
	}
	if rl.config.Enabled {
		stats["minute_tokens"] = rl.minute.Tokens()
		stats["hour_tokens"] = rl.hour.Tokens()
	}
	return stats
}

// Health checks if the query budget is working properly
func (rl *localLimiter) Health() error {
	// Local budget is always healthy
	return nil
}

// Close releases resources. The local budget holds none.
func (rl *localLimiter) Close() error {
	return nil
}

// Ensure localLimiter implements Limiter interface
var _ Limiter = (*localLimiter)(nil)
