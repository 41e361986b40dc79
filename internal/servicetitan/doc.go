// Package servicetitan implements a read-only client for the ServiceTitan
// v2 API.
//
// Security properties the package enforces:
//
//   - Client credentials flow only; no user passwords are handled.
//   - Tokens live in memory only and never appear in logs, error text,
//     or return values outside the Authorization header.
//   - Only GET requests are issued. Any other method is refused before
//     touching the network.
//   - Retries cover transport failures only. Classified HTTP responses,
//     including 5xx, surface immediately as typed errors.
//   - Upstream response bodies never appear in error messages.
//
// The client is created once at startup and shared by all tools:
//
//	client := servicetitan.New(cfg, servicetitan.WithBudget(limiter))
//	defer client.Close()
//	raw, err := client.Get(ctx, "jpm", "/jobs", params)
package servicetitan
