package servicetitan

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/utils"
)

// newTestClient wires a Client against a stub auth endpoint that always
// hands out a token, with the API side driven by the given handler.
func newTestClient(t *testing.T, api func(*http.Request) (*http.Response, error), opts ...Option) (*Client, *stubTransport) {
	t.Helper()

	transport := &stubTransport{
		auth: func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"access_token":"tok-test","expires_in":3600}`), nil
		},
		api: api,
	}

	cfg := testConfig("http://auth.test", "http://api.test")
	opts = append([]Option{
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryBaseDelay(10 * time.Millisecond),
	}, opts...)

	return New(cfg, opts...), transport
}

func TestStatusClassification(t *testing.T) {
	const leakyBody = `{"detail":"INTERNAL STACK TRACE do not show"}`

	tests := []struct {
		status     int
		wantType   errors.ErrorType
		wantStatus int
	}{
		{200, "", 0},
		{201, "", 0},
		{401, errors.ErrTypeAuth, 0},
		{403, errors.ErrTypeAPI, 403},
		{404, errors.ErrTypeNotFound, 0},
		{429, errors.ErrTypeRateLimit, 0},
		{500, errors.ErrTypeAPI, 500},
		{599, errors.ErrTypeAPI, 599},
		{418, errors.ErrTypeAPI, 418},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			client, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
				if tt.status == 200 || tt.status == 201 {
					return jsonResponse(tt.status, `{"data":[]}`), nil
				}
				return jsonResponse(tt.status, leakyBody), nil
			})

			raw, err := client.Get(context.Background(), "jpm", "/jobs", nil)

			if tt.wantType == "" {
				require.NoError(t, err)
				assert.JSONEq(t, `{"data":[]}`, string(raw))
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType),
				"status %d should map to %s, got %v", tt.status, tt.wantType, err)
			assert.Equal(t, tt.wantStatus, errors.StatusCode(err))
			assert.NotContains(t, err.Error(), "INTERNAL STACK TRACE",
				"response bodies must not leak into errors")
		})
	}
}

func TestNonJSONSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `<html>gateway error page</html>`), nil
	})

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAPI))
	assert.Contains(t, err.Error(), "non-JSON response")
	assert.NotContains(t, err.Error(), "gateway error page")
}

func TestRetryAfterParsing(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantHint int
		hintOK   bool
	}{
		{"digits", "30", 30, true},
		{"zero", "0", 0, true},
		{"http date ignored", "Wed, 21 Oct 2026 07:28:00 GMT", 0, false},
		{"garbage ignored", "soon", 0, false},
		{"missing", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
				resp := jsonResponse(http.StatusTooManyRequests, `{}`)
				if tt.header != "" {
					resp.Header.Set("Retry-After", tt.header)
				}
				return resp, nil
			})

			_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
			require.Error(t, err)
			require.True(t, errors.IsType(err, errors.ErrTypeRateLimit))

			hint, ok := errors.RetryAfterHint(err)
			assert.Equal(t, tt.hintOK, ok)
			if tt.hintOK {
				assert.Equal(t, tt.wantHint, hint)
			}
		})
	}
}

func TestTransportKindOf(t *testing.T) {
	timeoutErr := &net.OpError{Op: "read", Net: "tcp", Err: &timeoutError{}}
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("connection refused")}
	plainErr := fmt.Errorf("stream reset")

	assert.Equal(t, kindTimeout, transportKindOf(timeoutErr))
	assert.Equal(t, kindTimeout, transportKindOf(context.DeadlineExceeded))
	assert.Equal(t, kindConnect, transportKindOf(dialErr))
	assert.Equal(t, kindOther, transportKindOf(plainErr))

	// A dial timeout counts as a timeout, not a connect failure.
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}}
	assert.Equal(t, kindTimeout, transportKindOf(dialTimeout))
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

func TestRetryExhaustion(t *testing.T) {
	client, transport := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, dialRefused()
	})
	client.cfg.MaxRetries = 3

	start := time.Now()
	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAPI))
	assert.Contains(t, err.Error(), "unreachable after retries")
	assert.ErrorIs(t, err, utils.ErrRetriesExhausted)

	// Initial attempt plus three retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&transport.apiCalls))

	// Backoff at 10 ms base: 10 + 20 + 40 ms between the four attempts.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestNoRetryOnClassifiedResponses(t *testing.T) {
	for _, status := range []int{401, 403, 404, 429, 500} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			client, transport := newTestClient(t, func(*http.Request) (*http.Response, error) {
				return jsonResponse(status, `{}`), nil
			})
			client.cfg.MaxRetries = 3

			_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
			require.Error(t, err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&transport.apiCalls),
				"classified responses must not be retried")
		})
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, dialRefused()
		}
		return jsonResponse(http.StatusOK, `{"data":[{"id":1}],"hasMore":false}`), nil
	})
	client.cfg.MaxRetries = 3

	raw, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var page struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Len(t, page.Data, 1)
}

func TestTokenRevalidatedBeforeEachAttempt(t *testing.T) {
	// The token expires between attempts; the retry loop must pick up a
	// fresh one instead of re-sending the stale header.
	var exchanges int32
	var apiCalls int32

	transport := &stubTransport{}
	transport.auth = func(*http.Request) (*http.Response, error) {
		n := atomic.AddInt32(&exchanges, 1)
		return jsonResponse(http.StatusOK,
			fmt.Sprintf(`{"access_token":"tok-%d","expires_in":3600}`, n)), nil
	}

	client := New(testConfig("http://auth.test", "http://api.test"),
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryBaseDelay(time.Millisecond))
	client.cfg.MaxRetries = 2

	transport.api = func(req *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(&apiCalls, 1)
		if n == 1 {
			assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
			// Simulate the token dying mid-flight.
			client.tokens.Invalidate()
			return nil, dialRefused()
		}
		assert.Equal(t, "Bearer tok-2", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{}`), nil
	}

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
	assert.Equal(t, int32(2), atomic.LoadInt32(&apiCalls))
}

func TestRedirectSurfacedNotFollowed(t *testing.T) {
	var followed int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&followed, 1)
	}))
	defer target.Close()

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","expires_in":3600}`)
	}))
	defer authSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer apiSrv.Close()

	client := New(testConfig(authSrv.URL, apiSrv.URL), WithHTTPClient(&http.Client{}))

	_, err := client.Get(context.Background(), "jpm", "/jobs", nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAPI))
	assert.Equal(t, http.StatusFound, errors.StatusCode(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&followed), "redirect must not be followed")
}
