package servicetitan

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicetitan-mcp/internal/common/errors"
)

// stubLimiter counts permits and optionally refuses them.
type stubLimiter struct {
	acquired int32
	deny     error
}

func (s *stubLimiter) Acquire(context.Context) error {
	if s.deny != nil {
		return s.deny
	}
	atomic.AddInt32(&s.acquired, 1)
	return nil
}

func (s *stubLimiter) Stats() map[string]interface{} { return map[string]interface{}{} }
func (s *stubLimiter) Health() error                 { return nil }
func (s *stubLimiter) Close() error                  { return nil }

func TestGetBuildsRequest(t *testing.T) {
	var captured *http.Request
	client, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"data":[]}`), nil
	})

	_, err := client.Get(context.Background(), "jpm", "/jobs", map[string]string{
		"pageSize":           "100",
		"completedOnOrAfter": "2026-08-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "api.test", captured.URL.Host)
	assert.Equal(t, "/jpm/v2/tenant/12345/jobs", captured.URL.Path)

	query := captured.URL.Query()
	assert.Equal(t, "100", query.Get("pageSize"))
	assert.Equal(t, "2026-08-01T00:00:00Z", query.Get("completedOnOrAfter"))

	assert.Equal(t, "Bearer tok-test", captured.Header.Get("Authorization"))
	assert.Equal(t, "test-app-key", captured.Header.Get("ST-App-Key"))
	assert.Equal(t, "application/json", captured.Header.Get("Accept"))
}

func TestGetPathPrefix(t *testing.T) {
	var captured *http.Request
	client, _ := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	_, err := client.Get(context.Background(), "settings", "business-units", nil)
	require.NoError(t, err)
	assert.Equal(t, "/settings/v2/tenant/12345/business-units", captured.URL.Path)
	assert.Empty(t, captured.URL.RawQuery)
}

func TestGetRejectsBadModule(t *testing.T) {
	client, transport := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	for _, module := range []string{"", "jpm2", "jpm/v9", "../accounting", "jpm jobs"} {
		_, err := client.Get(context.Background(), module, "/jobs", nil)
		require.Error(t, err, "module %q must be rejected", module)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.apiCalls),
		"rejected modules must never reach the network")
}

func TestBudgetChargedOncePerCall(t *testing.T) {
	// Two transient failures plus the success are one logical query, and
	// the token exchange is never charged.
	budget := &stubLimiter{}

	var calls int32
	client, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, dialRefused()
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	}, WithBudget(budget))
	client.cfg.MaxRetries = 3

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&budget.acquired))
}

func TestBudgetRefusalBlocksRequest(t *testing.T) {
	budget := &stubLimiter{
		deny: errors.RateLimitError("query budget exceeded: resets in 42s", 42),
	}

	client, transport := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	}, WithBudget(budget))

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRateLimit))

	hint, ok := errors.RetryAfterHint(err)
	assert.True(t, ok)
	assert.Equal(t, 42, hint)

	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.apiCalls),
		"a refused budget must not consume upstream quota")
}

func TestUnauthorizedForcesReauth(t *testing.T) {
	var exchanges int32
	var apiCalls int32

	transport := &stubTransport{}
	transport.auth = func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&exchanges, 1)
		return jsonResponse(http.StatusOK, `{"access_token":"tok-test","expires_in":3600}`), nil
	}
	transport.api = func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&apiCalls, 1) == 1 {
			return jsonResponse(http.StatusUnauthorized, `{}`), nil
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	}

	client := New(testConfig("http://auth.test", "http://api.test"),
		WithHTTPClient(&http.Client{Transport: transport}))

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))

	// The cached token was dropped, so the next call re-authenticates.
	_, err = client.Get(context.Background(), "jpm", "/jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
}

func TestMutatingMethodsRefused(t *testing.T) {
	client, transport := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		_, err := client.requestWithRetry(context.Background(), method, "http://api.test/jpm/v2/tenant/12345/jobs", nil)
		require.Error(t, err, "method %s must be refused", method)
		assert.True(t, errors.IsType(err, errors.ErrTypeReadOnly))
		assert.Contains(t, err.Error(), method)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.apiCalls))
}

func TestEnsureAuthenticated(t *testing.T) {
	client, _ := newTestClient(t, nil)
	require.NoError(t, client.EnsureAuthenticated(context.Background()))

	badTransport := &stubTransport{
		auth: func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, `{}`), nil
		},
	}
	bad := New(testConfig("http://auth.test", "http://api.test"),
		WithHTTPClient(&http.Client{Transport: badTransport}))

	err := bad.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAuth))
}

func TestClose(t *testing.T) {
	client, _ := newTestClient(t, nil)
	assert.NoError(t, client.Close())
}
