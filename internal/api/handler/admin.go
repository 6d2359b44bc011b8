package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matchwatch/matchwatch/internal/api/respond"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/manual"
)

// GetTeams returns the team reference table.
// @Summary List teams
// @Description Returns all teams from the reference table, ordered by name.
// @Tags admin
// @Produce json
// @Success 200 {array} league.Team
// @Router /api/v1/admin/teams [get]
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.games.Teams(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list teams")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, teams)
}

// ListGames returns all manually entered games.
// @Summary List manual games
// @Tags admin
// @Produce json
// @Success 200 {array} manual.Game
// @Router /api/v1/admin/games [get]
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list games")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, games)
}

// GetGame returns one manual game by id.
// @Summary Get manual game
// @Tags admin
// @Produce json
// @Param id path int true "Game id"
// @Success 200 {object} manual.Game
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/admin/games/{id} [get]
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	game, err := h.games.Get(r.Context(), id)
	if errors.Is(err, manual.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No such game")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to get game")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, game)
}

// CreateGame inserts a manual game.
// @Summary Create manual game
// @Tags admin
// @Accept json
// @Produce json
// @Param game body manual.Game true "Game"
// @Success 201 {object} map[string]int
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/admin/games [post]
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	game, ok := decodeGame(w, r)
	if !ok {
		return
	}
	id, err := h.games.Create(r.Context(), game)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to create game")
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, map[string]int{"id": id})
}

// UpdateGame replaces a manual game's fields. Score changes made here are
// picked up by the watcher's next cycle like any other feed update.
// @Summary Update manual game
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Game id"
// @Param game body manual.Game true "Game"
// @Success 200 {object} manual.Game
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/admin/games/{id} [put]
func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	game, ok := decodeGame(w, r)
	if !ok {
		return
	}
	game.ID = id

	err := h.games.Update(r.Context(), game)
	if errors.Is(err, manual.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No such game")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to update game")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, game)
}

// DeleteGame removes a manual game.
// @Summary Delete manual game
// @Tags admin
// @Param id path int true "Game id"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/admin/games/{id} [delete]
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	err := h.games.Delete(r.Context(), id)
	if errors.Is(err, manual.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No such game")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to delete game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func gameID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game id must be an integer")
		return 0, false
	}
	return id, true
}

func decodeGame(w http.ResponseWriter, r *http.Request) (manual.Game, bool) {
	var game manual.Game
	if err := json.NewDecoder(r.Body).Decode(&game); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed JSON body", err.Error())
		return manual.Game{}, false
	}
	if game.HomeTeamID == "" || game.AwayTeamID == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_GAME", "home_team_id and away_team_id are required")
		return manual.Game{}, false
	}
	if game.StartTime.IsZero() {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_GAME", "start_time is required")
		return manual.Game{}, false
	}
	switch league.State(game.Status) {
	case league.StateScheduled, league.StateLive, league.StateFinished, league.StatePostponed:
	default:
		respond.WriteError(w, http.StatusBadRequest, "INVALID_GAME",
			"status must be one of scheduled, live, finished, postponed")
		return manual.Game{}, false
	}
	return game, true
}
