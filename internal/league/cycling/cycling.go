// Package cycling adapts the individual time-trial race calendar. Races have
// no live scoring, so the adapter only participates in pre-game reminders.
package cycling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/feedapi"
)

const leagueID = "cycling"

// Adapter fetches and normalizes time-trial races.
type Adapter struct {
	client *feedapi.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a cycling adapter.
func New(client *feedapi.Client, c *cache.Cache, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, cache: c, logger: logger}
}

func (a *Adapter) ID() string             { return leagueID }
func (a *Adapter) HasScoringDetail() bool { return false }

type raceRaw struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Starts   string `json:"starts"` // RFC3339
	Status   string `json:"status"`
}

type raceListResponse struct {
	Races []raceRaw `json:"races"`
}

// ListAll returns the race calendar, via the schedule cache. Races are
// never live in the watcher's sense.
func (a *Adapter) ListAll(ctx context.Context) ([]league.Event, error) {
	if a.cache == nil {
		return a.fetchRaces(ctx)
	}
	v, err := a.cache.GetOrFetch(ctx, cache.CategorySchedule, leagueID, func(ctx context.Context) (any, bool, error) {
		events, err := a.fetchRaces(ctx)
		return events, false, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]league.Event), nil
}

// ListActive returns nothing: time trials have no goal-like scoring to watch.
func (a *Adapter) ListActive(ctx context.Context) ([]league.Event, error) {
	return nil, nil
}

// FetchDetails always reports absent.
func (a *Adapter) FetchDetails(ctx context.Context, eventID string) (*league.EventDetails, error) {
	return nil, nil
}

// DisplayInfo summarizes a race for reminder messages.
func (a *Adapter) DisplayInfo(e league.Event) league.DisplayInfo {
	return league.DisplayInfo{
		Title:     e.Title,
		Venue:     e.Venue,
		StartTime: e.StartTime,
	}
}

func (a *Adapter) fetchRaces(ctx context.Context) ([]league.Event, error) {
	var resp raceListResponse
	if err := a.client.GetJSON(ctx, "/races", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch cycling races: %w", err)
	}

	events := make([]league.Event, 0, len(resp.Races))
	for _, r := range resp.Races {
		if r.ID == "" || r.Name == "" {
			a.logger.Warn("Skipping malformed cycling race", "id", r.ID)
			continue
		}
		starts, err := time.Parse(time.RFC3339, r.Starts)
		if err != nil {
			a.logger.Warn("Skipping cycling race with bad start time", "id", r.ID, "starts", r.Starts)
			continue
		}
		state := league.StateScheduled
		if r.Status == "finished" {
			state = league.StateFinished
		}
		events = append(events, league.Event{
			ID:        r.ID,
			LeagueID:  leagueID,
			Title:     r.Name,
			Venue:     r.Location,
			StartTime: starts,
			State:     state,
		})
	}
	return events, nil
}
