package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/ratelimit"
	"servicetitan-mcp/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	require.NoError(t, err)

	budget, err := ratelimit.NewLocalLimiter(ratelimit.Config{
		Enabled:   true,
		PerMinute: 10,
		PerHour:   100,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = budget.Close() })

	return &App{
		Config: &config.Config{},
		Logger: logger,
		Budget: budget,
		Stats:  NewStats(),
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	app.healthRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Contains(t, body, "uptime")
}

func TestStatsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.Stats.Record("get_revenue_summary", false)
	app.Stats.Record("get_revenue_summary", true)

	req := httptest.NewRequest("GET", "/stats", nil)
	rr := httptest.NewRecorder()
	app.healthRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		TotalCalls  int64                      `json:"total_calls"`
		TotalErrors int64                      `json:"total_errors"`
		Tools       map[string]json.RawMessage `json:"tools"`
		Budget      map[string]interface{}     `json:"budget"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, int64(2), body.TotalCalls)
	assert.Equal(t, int64(1), body.TotalErrors)
	assert.Contains(t, body.Tools, "get_revenue_summary")
	assert.Equal(t, "local", body.Budget["type"])
}

func TestHealthRouterRejectsPost(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/health", nil)
	rr := httptest.NewRecorder()
	app.healthRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStartHealthServerDisabledWithoutAddr(t *testing.T) {
	app := newTestApp(t)
	app.Config.HealthAddr = ""

	assert.Nil(t, app.StartHealthServer())
}
