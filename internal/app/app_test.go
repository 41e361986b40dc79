package app

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/config"
)

func TestNewWiresAllComponents(t *testing.T) {
	quiet, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	require.NoError(t, err)
	logging.SetGlobalLogger(quiet)

	cfg := &config.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		AppKey:       "appkey",
		TenantID:     "12345",
		AuthURL:      "https://auth.example.com/connect/token",
		APIBase:      "https://api.example.com",

		ConnectTimeout:     5 * time.Second,
		ReadTimeout:        10 * time.Second,
		TotalTimeout:       30 * time.Second,
		MaxRetries:         3,
		TokenRefreshBuffer: time.Minute,

		MaxQueriesPerMinute: 10,
		MaxQueriesPerHour:   100,
	}

	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Cleanup()

	assert.NotNil(t, app.Budget)
	assert.NotNil(t, app.Client)
	assert.NotNil(t, app.Toolset)
	assert.NotNil(t, app.Stats)
	assert.NotNil(t, app.MCP)
}
