// Package handball adapts the handball league feed. The feed exposes only
// aggregate scores — no per-goal detail — so the watcher detects goals by
// comparing successive score pairs.
package handball

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/feedapi"
)

const leagueID = "handball"

const recentWindow = 2 * time.Hour

// Adapter fetches and normalizes handball games.
type Adapter struct {
	client *feedapi.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a handball adapter.
func New(client *feedapi.Client, c *cache.Cache, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, cache: c, logger: logger}
}

func (a *Adapter) ID() string             { return leagueID }
func (a *Adapter) HasScoringDetail() bool { return false }

type gameRaw struct {
	ID        string `json:"id"`
	Round     string `json:"round"`
	HomeID    string `json:"home_id"`
	HomeName  string `json:"home_name"`
	HomeCode  string `json:"home_code"`
	AwayID    string `json:"away_id"`
	AwayName  string `json:"away_name"`
	AwayCode  string `json:"away_code"`
	Hall      string `json:"hall"`
	Starts    string `json:"starts"` // RFC3339
	Status    string `json:"status"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

// ListAll returns the full schedule, via the schedule cache.
func (a *Adapter) ListAll(ctx context.Context) ([]league.Event, error) {
	if a.cache == nil {
		return a.fetchGames(ctx, "/games")
	}
	v, err := a.cache.GetOrFetch(ctx, cache.CategorySchedule, leagueID, func(ctx context.Context) (any, bool, error) {
		events, err := a.fetchGames(ctx, "/games")
		if err != nil {
			return nil, false, err
		}
		hasLive := false
		for _, e := range events {
			if e.State == league.StateLive {
				hasLive = true
				break
			}
		}
		return events, hasLive, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]league.Event), nil
}

// ListActive returns games that are live or within the recency window. The
// returned events carry the current aggregate score for score diffing.
func (a *Adapter) ListActive(ctx context.Context) ([]league.Event, error) {
	events, err := a.fetchGames(ctx, "/games/live")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := events[:0]
	for _, e := range events {
		switch e.State {
		case league.StateLive:
			active = append(active, e)
		case league.StateFinished:
			if now.Sub(e.StartTime) <= recentWindow {
				active = append(active, e)
			}
		}
	}
	return active, nil
}

// FetchDetails always reports absent: the feed has no per-event detail.
func (a *Adapter) FetchDetails(ctx context.Context, eventID string) (*league.EventDetails, error) {
	return nil, nil
}

// DisplayInfo summarizes a game for reminder messages.
func (a *Adapter) DisplayInfo(e league.Event) league.DisplayInfo {
	return league.DisplayInfo{
		Title:        fmt.Sprintf("%s – %s", e.Home.Name, e.Away.Name),
		Participants: []string{e.Home.Name, e.Away.Name},
		Venue:        e.Venue,
		StartTime:    e.StartTime,
	}
}

func (a *Adapter) fetchGames(ctx context.Context, path string) ([]league.Event, error) {
	var raw []gameRaw
	if err := a.client.GetJSON(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch handball games: %w", err)
	}

	events := make([]league.Event, 0, len(raw))
	for _, g := range raw {
		e, ok := normalizeGame(g)
		if !ok {
			a.logger.Warn("Skipping malformed handball game", "id", g.ID)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func normalizeGame(raw gameRaw) (league.Event, bool) {
	if raw.ID == "" || raw.HomeID == "" || raw.AwayID == "" {
		return league.Event{}, false
	}
	starts, err := time.Parse(time.RFC3339, raw.Starts)
	if err != nil {
		return league.Event{}, false
	}
	return league.Event{
		ID:        raw.ID,
		LeagueID:  leagueID,
		Round:     raw.Round,
		Home:      league.Team{ID: raw.HomeID, Name: raw.HomeName, Code: raw.HomeCode},
		Away:      league.Team{ID: raw.AwayID, Name: raw.AwayName, Code: raw.AwayCode},
		Venue:     raw.Hall,
		StartTime: starts,
		State:     normalizeState(raw.Status),
		HomeScore: raw.HomeGoals,
		AwayScore: raw.AwayGoals,
	}, true
}

func normalizeState(status string) league.State {
	switch status {
	case "live", "first_half", "second_half", "halftime":
		return league.StateLive
	case "finished":
		return league.StateFinished
	case "postponed":
		return league.StatePostponed
	default:
		return league.StateScheduled
	}
}
