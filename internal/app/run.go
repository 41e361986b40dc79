package app

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/config"
)

// Run is the main entry point for the application
func Run() error {
	// .env is optional; deployments may configure the environment directly
	_ = godotenv.Load()

	var checkOnly bool
	flag.BoolVar(&checkOnly, "check", false, "Verify ServiceTitan credentials and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol stream, so logs go to the
	// configured file with a stderr fallback.
	logging.InitGlobalLogger(cfg.LogLevel, cfg.LogFile)
	defer logging.MustSync()

	if err := cfg.Validate(); err != nil {
		logging.GetGlobalLogger().Error("config.invalid", err)
		return err
	}

	app, err := New(cfg)
	if err != nil {
		logging.GetGlobalLogger().Error("app.initialization_failed", err)
		return err
	}
	defer app.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if checkOnly {
		return app.CheckConnection(ctx)
	}

	healthSrv := app.StartHealthServer()

	app.Logger.Info("startup.starting_mcp_server")
	serveErr := app.Serve(ctx)

	app.Logger.Info("server.shutting_down")
	if healthSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("health.shutdown_error", logging.Field{"error", err.Error()})
		}
	}

	// A cancelled context is the normal signal-driven exit path.
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		app.Logger.Error("server.stdio_failed", serveErr)
		return serveErr
	}
	app.Logger.Info("server.exited")
	return nil
}

// Serve speaks MCP over stdio until the context is cancelled or the
// client closes stdin.
func (app *App) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(app.MCP)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
