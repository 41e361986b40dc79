package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"servicetitan-mcp/internal/common/logging"
)

// New creates a query budget for the given configuration.
//
// With an empty redisURL the budget is local to this process. With a Redis
// URL, New verifies the server is reachable before committing to it; an
// unreachable Redis falls back to the local budget with a warning rather
// than refusing to start, since a missing coordination layer weakens the
// budget but does not make queries unsafe. A malformed URL is still a
// startup error.
func New(config Config, redisURL string, logger logging.Logger) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	if redisURL == "" {
		config.Type = BackendLocal
		return NewLocalLimiter(config)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		// The URL may embed credentials, so the parse error is not echoed
		return nil, fmt.Errorf("ST_REDIS_URL is not a valid redis url")
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("budget.redis_unreachable",
			logging.Field{Key: "error", Value: err.Error()},
			logging.Field{Key: "action", Value: "falling back to local budget"},
		)
		config.Type = BackendLocal
		return NewLocalLimiter(config)
	}

	logger.Info("budget.distributed",
		logging.Field{Key: "per_minute", Value: config.PerMinute},
		logging.Field{Key: "per_hour", Value: config.PerHour},
	)
	config.Type = BackendDistributed
	return NewDistributedLimiter(config, client, logger)
}
