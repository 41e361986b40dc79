// Package ratelimit provides the outbound query budget that supports both
// local (in-memory) and distributed (Redis-backed) implementations.
//
// The budget caps how many upstream API queries the server issues per minute
// and per hour. It never blocks: when a window is exhausted, Acquire returns
// a rate limit error carrying a whole-second hint of when capacity returns,
// and the caller surfaces that to the user instead of queueing work.
//
// # Basic Usage
//
// For a single-instance deployment:
//
//	limiter, err := ratelimit.NewLocalLimiter(ratelimit.Config{
//		PerMinute: 10,
//		PerHour:   100,
//		Enabled:   true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := limiter.Acquire(ctx); err != nil {
//		// Budget exhausted, err carries the retry hint
//		return err
//	}
//	// Permit consumed, issue the query
//
// # Backend Types
//
//   - BackendLocal: In-memory budget using golang.org/x/time/rate
//   - BackendDistributed: Redis-backed fixed-window counters shared across instances
//
// The local backend is suitable for a single server process. The distributed
// backend keeps several instances under one shared budget; use New with a
// Redis URL to select it, falling back to local when Redis is unreachable.
//
// # Window Semantics
//
// A permit is consumed from both windows together. If the hour window refuses
// after the minute window granted, the minute permit is returned, so a refusal
// never burns capacity.
//
// The distributed backend uses fixed windows aligned to wall-clock boundaries,
// so counts reset at the top of each minute and hour. The local backend uses
// token buckets that drain at the equivalent steady rate.
//
// # Thread Safety
//
// All implementations are safe for use from multiple goroutines.
package ratelimit
