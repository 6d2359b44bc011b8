package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchwatch/matchwatch/internal/api/respond"
	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/config"
)

// GetLeagues lists the tracked leagues.
// @Summary List leagues
// @Description Returns every league the watcher tracks, in polling order.
// @Tags leagues
// @Produce json
// @Success 200 {array} config.LeagueConfig
// @Router /api/v1/leagues [get]
func (h *Handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, config.LeagueRegistry)
}

// GetLeagueEvents returns a league's full calendar.
// @Summary League calendar
// @Description Returns every event known for the league. Supports If-None-Match.
// @Tags leagues
// @Produce json
// @Param leagueID path string true "League id"
// @Success 200 {array} league.Event
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/v1/leagues/{leagueID}/events [get]
func (h *Handler) GetLeagueEvents(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	adapter, ok := h.leagues.Get(leagueID)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_LEAGUE", "No such league: "+leagueID)
		return
	}

	events, err := adapter.ListAll(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "League feed unavailable")
		return
	}

	data, err := json.Marshal(events)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode events")
		return
	}

	etag := cache.ComputeETag(data)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, h.cfg.ScheduleCacheBase, false)
}

// GetActiveEvents returns the currently active events across all leagues.
// @Summary Active events
// @Description Returns live and recently finished events, per league.
// @Tags leagues
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/events/active [get]
func (h *Handler) GetActiveEvents(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]interface{})
	for _, adapter := range h.leagues.All() {
		events, err := adapter.ListActive(r.Context())
		if err != nil {
			// Partial results beat a hard failure; the feed error is visible
			// in the activity log already.
			out[adapter.ID()] = map[string]string{"error": "feed unavailable"}
			continue
		}
		out[adapter.ID()] = events
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}
