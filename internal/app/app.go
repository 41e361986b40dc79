// Package app assembles the server: configuration, logging, the query
// budget, the ServiceTitan client, and the MCP tool registry, plus the
// run loop and the optional health endpoint.
package app

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/common/ratelimit"
	"servicetitan-mcp/internal/config"
	"servicetitan-mcp/internal/servicetitan"
	"servicetitan-mcp/internal/tools"
)

const version = "1.0.0"

// instructions is handed to the MCP client on initialize so the model
// knows what this server is for before it calls any tool.
const instructions = "Access ServiceTitan job management data for American Leak Detection. " +
	"All responses show aggregated business metrics only — no customer PII. " +
	"Use these tools to answer questions about technician jobs, revenue, " +
	"schedules, and business performance."

// App holds all the application dependencies
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Budget  ratelimit.Limiter
	Client  *servicetitan.Client
	Toolset *tools.Toolset
	Stats   *Stats
	MCP     *server.MCPServer
}

// New creates a new application instance with all dependencies wired.
// Nothing here touches the network: the first token exchange happens on
// the first tool call, or during EnsureAuthenticated for --check runs.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{"component", "app"}),
		Stats:  NewStats(),
	}

	budget, err := ratelimit.New(ratelimit.Config{
		Enabled:   true,
		PerMinute: cfg.MaxQueriesPerMinute,
		PerHour:   cfg.MaxQueriesPerHour,
	}, cfg.RedisURL, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("query budget: %w", err)
	}
	app.Budget = budget

	app.Client = servicetitan.New(cfg,
		servicetitan.WithBudget(budget),
		servicetitan.WithLogger(app.Logger),
	)
	app.Toolset = tools.NewToolset(app.Client, app.Logger)

	app.MCP = server.NewMCPServer("ServiceTitan", version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	tools.RegisterAll(app.MCP, app.Toolset, app.Stats)

	app.Logger.Info("app.initialized",
		logging.Field{"version", version},
		logging.Field{"api_base", cfg.APIBase},
		logging.Field{"budget_per_minute", cfg.MaxQueriesPerMinute},
		logging.Field{"budget_per_hour", cfg.MaxQueriesPerHour},
	)
	return app, nil
}

// CheckConnection forces a token exchange and reports the result. Used
// by the --check flag so credentials can be verified before the server
// is added to an MCP client.
func (app *App) CheckConnection(ctx context.Context) error {
	app.Logger.Info("startup.checking_connection")
	if err := app.Client.EnsureAuthenticated(ctx); err != nil {
		return err
	}
	fmt.Println("Connection OK — ServiceTitan authentication successful.")
	fmt.Println("You can now add this server to Claude Desktop.")
	return nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Client != nil {
		_ = app.Client.Close()
	}
	if app.Budget != nil {
		_ = app.Budget.Close()
	}
}
