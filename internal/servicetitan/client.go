package servicetitan

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/ratelimit"
	"servicetitan-mcp/internal/config"
)

const apiVersion = "v2"

var modulePattern = regexp.MustCompile(`^[A-Za-z]+$`)

// Client is the read-only ServiceTitan API client shared by all tools.
type Client struct {
	cfg        *config.Config
	tokens     *TokenManager
	httpClient *http.Client
	budget     ratelimit.Limiter
	logger     logging.Logger

	retryBaseDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client. Used by tests
// to point at a local server with short timeouts.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithBudget installs the query budget consumed by every Get call.
func WithBudget(limiter ratelimit.Limiter) Option {
	return func(c *Client) {
		c.budget = limiter
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryBaseDelay overrides the first backoff delay. Production keeps
// the default one second; tests shrink it.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = d
	}
}

// New creates a ServiceTitan client from validated configuration.
//
// The transport enforces the three timeout levels separately: dialing is
// bounded by ConnectTimeout, waiting for response headers by ReadTimeout,
// and the whole exchange by TotalTimeout. Redirects are never followed;
// a 3xx comes back to the caller as an unexpected response.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:            cfg,
		logger:         logging.GetGlobalLogger(),
		retryBaseDelay: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
			ResponseHeaderTimeout: cfg.ReadTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		}
		c.httpClient = &http.Client{
			Timeout:   cfg.TotalTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	} else if c.httpClient.CheckRedirect == nil {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	c.tokens = NewTokenManager(cfg, c.httpClient, c.logger)
	return c
}

// Get performs an authenticated GET against the ServiceTitan v2 API.
//
// ServiceTitan URL structure:
//
//	{api_base}/{module}/v2/tenant/{tenant_id}{path}
//
// module is the API area ("jpm", "settings", "accounting"); path is the
// resource relative to the tenant base and gains a leading slash when
// missing. Each call consumes one query budget permit before touching
// the network; token refreshes are not charged.
func (c *Client) Get(ctx context.Context, module, path string, params map[string]string) (json.RawMessage, error) {
	if !modulePattern.MatchString(module) {
		return nil, errors.ValidationError(fmt.Sprintf("invalid module name %q", module))
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if c.budget != nil {
		if err := c.budget.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	requestURL := fmt.Sprintf("%s/%s/%s/tenant/%s%s", c.cfg.APIBase, module, apiVersion, c.cfg.TenantID, path)
	return c.requestWithRetry(ctx, http.MethodGet, requestURL, params)
}

// EnsureAuthenticated validates that the OAuth credentials work by
// forcing a token fetch. Called at startup so a bad credential fails the
// process immediately instead of surfacing on the first user query.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	if _, err := c.tokens.Token(ctx); err != nil {
		return err
	}
	c.logger.Info("servicetitan.auth.verified")
	return nil
}

// Close releases idle connections. The query budget is owned by the
// caller and closed separately.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
