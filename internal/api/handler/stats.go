package handler

import (
	"net/http"
	"time"

	"github.com/matchwatch/matchwatch/internal/api/respond"
)

// GetStats returns a combined snapshot of the background workers.
// @Summary Service statistics
// @Description Returns watcher, reminder scheduler, delivery channel, and cache counters.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"watcher":   h.watcher.Stats(),
		"reminders": h.scheduler.Stats(),
		"channels":  h.dispatcher.Stats(),
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetActivity returns the recent operational error log, newest first.
// @Summary Recent operational errors
// @Description Returns the bounded, persisted error log. Tokens are redacted before logging.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/activity [get]
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"entries": h.activityLog.Entries(),
		"count":   h.activityLog.Len(),
	})
}
