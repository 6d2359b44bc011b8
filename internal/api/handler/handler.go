// Package handler provides HTTP handlers for all API endpoints. Handlers are
// thin: they validate input, call into the watcher/scheduler/dispatcher or
// the manual-games store, and write JSON through the respond package.
package handler

import (
	"net/http"
	"time"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/api/respond"
	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/config"
	"github.com/matchwatch/matchwatch/internal/db"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/manual"
	"github.com/matchwatch/matchwatch/internal/notify"
	"github.com/matchwatch/matchwatch/internal/remind"
	"github.com/matchwatch/matchwatch/internal/watch"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool        *db.Pool
	cache       *cache.Cache
	cfg         *config.Config
	leagues     *league.Registry
	games       *manual.Store
	dispatcher  *notify.Dispatcher
	watcher     *watch.Watcher
	scheduler   *remind.Scheduler
	activityLog *activity.Log
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, c *cache.Cache, cfg *config.Config, leagues *league.Registry,
	games *manual.Store, dispatcher *notify.Dispatcher, watcher *watch.Watcher,
	scheduler *remind.Scheduler, activityLog *activity.Log) *Handler {
	return &Handler{
		pool:        pool,
		cache:       c,
		cfg:         cfg,
		leagues:     leagues,
		games:       games,
		dispatcher:  dispatcher,
		watcher:     watcher,
		scheduler:   scheduler,
		activityLog: activityLog,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the tracked leagues.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "MatchWatch API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"leagues": h.leagues.IDs(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns feed cache statistics (entries, live categories).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
