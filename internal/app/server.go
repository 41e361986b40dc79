package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"servicetitan-mcp/internal/common/logging"
)

// StartHealthServer exposes GET /health and GET /stats on HealthAddr
// for operators watching a long-running deployment. Returns nil when no
// address is configured, which is the normal desktop setup. The
// endpoints carry process status and invocation counters only; no
// ServiceTitan data and no credentials.
func (app *App) StartHealthServer() *http.Server {
	if app.Config.HealthAddr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:         app.Config.HealthAddr,
		Handler:      app.healthRouter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		app.Logger.Info("health.listening", logging.Field{"addr", app.Config.HealthAddr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("health.server_failed", err)
		}
	}()
	return srv
}

func (app *App) healthRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", app.handleHealth).Methods("GET")
	router.HandleFunc("/stats", app.handleStats).Methods("GET")
	return router
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := app.Budget.Health(); err != nil {
		status = "degraded"
	}

	health := map[string]interface{}{
		"status":  status,
		"uptime":  app.Stats.Uptime().Round(time.Second).String(),
		"version": version,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

func (app *App) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Snapshot
		Budget map[string]interface{} `json:"budget"`
	}{
		Snapshot: app.Stats.Snapshot(),
		Budget:   app.Budget.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
