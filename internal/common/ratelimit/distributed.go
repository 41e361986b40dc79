package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/logging"
)

// Redis operations get their own short deadline so a slow Redis cannot
// stall a query for longer than the budget is worth.
const redisOpTimeout = 2 * time.Second

// distributedLimiter implements a Redis-backed query budget shared across instances.
//
// Each window is a fixed-window counter keyed by the wall-clock bucket
// (unix time divided by the window length), incremented per permit and
// expired after two windows.
type distributedLimiter struct {
	config Config
	client *redis.Client
	logger logging.Logger
}

// NewDistributedLimiter creates a Redis-backed query budget
func NewDistributedLimiter(config Config, client *redis.Client, logger logging.Logger) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required for distributed query budget")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &distributedLimiter{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

// Acquire consumes one permit from both windows, or refuses with a retry hint.
//
// On Redis errors the permit is granted: the budget protects API spend, and a
// degraded Redis should not take the whole server down with it.
func (rl *distributedLimiter) Acquire(ctx context.Context) error {
	if !rl.config.Enabled {
		return nil
	}

	allowed, retry, err := rl.tryWindow(ctx, "minute", 60, rl.config.PerMinute)
	if err != nil {
		rl.failOpen(err)
		return nil
	}
	if !allowed {
		return errors.RateLimitError("query budget exhausted for this minute", retry)
	}

	allowed, retry, err = rl.tryWindow(ctx, "hour", 3600, rl.config.PerHour)
	if err != nil {
		rl.failOpen(err)
		return nil
	}
	if !allowed {
		// Return the minute permit so the refusal does not burn capacity
		rl.giveBack(ctx, "minute", 60)
		return errors.RateLimitError("query budget exhausted for this hour", retry)
	}

	return nil
}

// tryWindow increments the counter for the current fixed window and reports
// whether the permit fits the limit, with seconds until the window resets.
func (rl *distributedLimiter) tryWindow(ctx context.Context, window string, seconds int64, limit int) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	now := time.Now().Unix()
	key := rl.windowKey(window, seconds, now)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Duration(2*seconds)*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if incr.Val() > int64(limit) {
		return false, int(seconds - now%seconds), nil
	}
	return true, 0, nil
}

func (rl *distributedLimiter) windowKey(window string, seconds, now int64) string {
	return fmt.Sprintf("%s%s:%d", rl.config.KeyPrefix, window, now/seconds)
}

// giveBack returns one permit to a window after a later window refused.
func (rl *distributedLimiter) giveBack(ctx context.Context, window string, seconds int64) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	now := time.Now().Unix()
	if err := rl.client.Decr(ctx, rl.windowKey(window, seconds, now)).Err(); err != nil {
		rl.logger.Debug("budget.give_back_failed",
			logging.Field{Key: "window", Value: window},
			logging.Field{Key: "error", Value: err.Error()},
		)
	}
}

func (rl *distributedLimiter) failOpen(err error) {
	rl.logger.Warn("budget.redis_unavailable",
		logging.Field{Key: "error", Value: err.Error()},
		logging.Field{Key: "action", Value: "permit granted without counting"},
	)
}

// Stats returns query budget statistics
func (rl *distributedLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":       "distributed",
		"enabled":    rl.config.Enabled,
		"per_minute": rl.config.PerMinute,
		"per_hour":   rl.config.PerHour,
		"backend":    "redis",
		"key_prefix": rl.config.KeyPrefix,
	}
}

// Health checks if Redis is reachable
func (rl *distributedLimiter) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rl.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (rl *distributedLimiter) Close() error {
	return rl.client.Close()
}

// Ensure distributedLimiter implements Limiter interface
var _ Limiter = (*distributedLimiter)(nil)
