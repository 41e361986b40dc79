package servicetitan

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"

	"servicetitan-mcp/internal/circuitbreaker"
	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/utils"
)

type transportKind int

const (
	kindConnect transportKind = iota
	kindTimeout
	kindOther
)

// transportKindOf buckets a transport failure the way the log events and
// error wording distinguish them. Timeout wins over connect so a dial
// timeout reads as "did not respond" rather than "cannot connect".
func transportKindOf(err error) transportKind {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return kindTimeout
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return kindTimeout
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) && opErr.Op == "dial" {
		return kindConnect
	}
	return kindOther
}

func isBreakerOpen(err error) bool {
	return stderrors.Is(err, circuitbreaker.ErrCircuitBreakerOpen)
}

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// retryAfterHint parses the Retry-After header into whole seconds.
// Only plain digit values count; HTTP-date forms and garbage return -1
// (no hint) rather than a guess.
func retryAfterHint(resp *http.Response) int {
	raw := resp.Header.Get("Retry-After")
	if !digitsPattern.MatchString(raw) {
		return -1
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return seconds
}

// requestWithRetry issues the request with exponential backoff over
// transport failures only. Every attempt fetches a token first, so a
// token that expires mid-retry gets refreshed instead of producing a
// guaranteed 401 on the next attempt.
//
// Classified HTTP responses are never retried: a 500 from ServiceTitan
// is an answer, not an outage.
func (c *Client) requestWithRetry(ctx context.Context, method, requestURL string, params map[string]string) (json.RawMessage, error) {
	if method != http.MethodGet {
		return nil, errors.ReadOnlyViolation(method)
	}

	var result json.RawMessage
	attempt := 0

	retryCfg := utils.RetryConfig{
		MaxAttempts:     c.cfg.MaxRetries + 1,
		InitialDelay:    c.retryBaseDelay,
		MaxDelay:        c.retryBaseDelay * 32,
		BackoffFactor:   2.0,
		JitterFactor:    0,
		RetryableErrors: errors.IsRetryable,
	}

	err := utils.RetryWithBackoff(ctx, retryCfg, func() error {
		attempt++
		if attempt > 1 {
			c.logger.Info("servicetitan.request.retrying",
				logging.Int("attempt", attempt),
				logging.Int("max_retries", c.cfg.MaxRetries))
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			// Authentication errors are not transport failures; they
			// surface immediately through the retry filter.
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
		if err != nil {
			return errors.InternalError("cannot build request", err)
		}
		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Set(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("ST-App-Key", c.cfg.AppKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return c.classifyRequestFailure(err, attempt)
		}

		result, err = c.handleResponse(resp)
		return err
	})

	if err != nil {
		if stderrors.Is(err, utils.ErrRetriesExhausted) {
			return nil, errors.APIError(0, "ServiceTitan API is unreachable after retries").WithCause(err)
		}
		return nil, err
	}
	return result, nil
}

// classifyRequestFailure turns a transport error into its retryable
// typed form and logs the attempt. The raw error stays attached as the
// cause for the final exhaustion error; it never reaches users.
func (c *Client) classifyRequestFailure(err error, attempt int) *errors.AppError {
	fields := []logging.Field{
		logging.Int("attempt", attempt),
		logging.Int("max_retries", c.cfg.MaxRetries),
	}

	switch transportKindOf(err) {
	case kindTimeout:
		c.logger.Warn("servicetitan.request.timeout", fields...)
		return errors.TimeoutError("request timed out", err)
	case kindConnect:
		c.logger.Warn("servicetitan.request.connect_error", fields...)
		return errors.ConnectionError("cannot connect", err)
	default:
		c.logger.Warn("servicetitan.request.network_error", fields...)
		return errors.ConnectionError("network error", err)
	}
}

// handleResponse parses a 2xx response or classifies everything else
// into the error taxonomy. Response bodies never appear in error
// messages; they may contain internal ServiceTitan debugging detail.
func (c *Client) handleResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if readErr != nil {
			return nil, errors.ConnectionError("network error", readErr)
		}
		if !json.Valid(body) {
			c.logger.Error("servicetitan.response.invalid_json", nil,
				logging.Int("status_code", resp.StatusCode))
			return nil, errors.APIError(0, "API returned non-JSON response")
		}
		return json.RawMessage(body), nil

	case resp.StatusCode == http.StatusUnauthorized:
		// The server disagrees with the local expiry; drop the cached
		// token so the next attempt starts with a fresh exchange.
		c.tokens.Invalidate()
		c.logger.Error("servicetitan.response.unauthorized", nil)
		return nil, errors.AuthError("ServiceTitan rejected the access token; credentials may have been revoked")

	case resp.StatusCode == http.StatusForbidden:
		c.logger.Error("servicetitan.response.forbidden", nil)
		return nil, errors.APIError(http.StatusForbidden,
			"access denied; verify the app has read permissions in ServiceTitan")

	case resp.StatusCode == http.StatusNotFound:
		c.logger.Warn("servicetitan.response.not_found")
		return nil, errors.NotFoundError("resource")

	case resp.StatusCode == http.StatusTooManyRequests:
		hint := retryAfterHint(resp)
		c.logger.Warn("servicetitan.response.rate_limited", logging.Int("retry_after", hint))
		return nil, errors.RateLimitError("ServiceTitan rate limit exceeded", hint)

	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		c.logger.Error("servicetitan.response.server_error", nil,
			logging.Int("status_code", resp.StatusCode))
		return nil, errors.APIError(resp.StatusCode,
			fmt.Sprintf("ServiceTitan server error (HTTP %d)", resp.StatusCode))

	default:
		// Redirects land here too: the client never follows them, so a
		// 3xx is surfaced as an unexpected answer instead of silently
		// requesting a location the config never approved.
		c.logger.Error("servicetitan.response.unexpected_status", nil,
			logging.Int("status_code", resp.StatusCode))
		return nil, errors.APIError(resp.StatusCode,
			fmt.Sprintf("unexpected response from ServiceTitan (HTTP %d)", resp.StatusCode))
	}
}
