// Package football adapts the football league feed. This is the only feed
// with event-level scoring detail, so the watcher diffs its goal lists
// directly instead of falling back to aggregate-score comparison.
package football

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/feedapi"
)

const leagueID = "football"

// recentWindow keeps just-finished matches in the active set so a final
// goal scored seconds before the whistle is still picked up.
const recentWindow = 2 * time.Hour

// Adapter fetches and normalizes football fixtures.
type Adapter struct {
	client *feedapi.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a football adapter. cache may be nil (schedule lists are then
// fetched on every call; detail fetches never go through the cache).
func New(client *feedapi.Client, c *cache.Cache, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, cache: c, logger: logger}
}

func (a *Adapter) ID() string             { return leagueID }
func (a *Adapter) HasScoringDetail() bool { return true }

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type matchRaw struct {
	ID        string   `json:"id"`
	Round     string   `json:"round"`
	Home      teamRaw  `json:"home"`
	Away      teamRaw  `json:"away"`
	Venue     string   `json:"venue"`
	KickOff   string   `json:"kick_off"` // RFC3339
	Status    string   `json:"status"`   // scheduled|live|finished|postponed
	HomeScore int      `json:"home_score"`
	AwayScore int      `json:"away_score"`
	Goals     []goalRaw `json:"goals,omitempty"`
}

type teamRaw struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type goalRaw struct {
	Side       string `json:"side"` // home|away
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Minute     string `json:"minute"` // e.g. "67'", "90+2'"
	Half       string `json:"half"`   // 1H|2H|ET|PEN
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
}

type matchListResponse struct {
	Matches []matchRaw `json:"matches"`
}

// --------------------------------------------------------------------------
// Adapter operations
// --------------------------------------------------------------------------

// ListAll returns every fixture of the current season, via the schedule cache.
func (a *Adapter) ListAll(ctx context.Context) ([]league.Event, error) {
	fetch := func(ctx context.Context) (any, bool, error) {
		events, hasLive, err := a.fetchMatches(ctx, "/matches", nil)
		return events, hasLive, err
	}

	if a.cache == nil {
		events, _, err := a.fetchMatches(ctx, "/matches", nil)
		return events, err
	}

	v, err := a.cache.GetOrFetch(ctx, cache.CategorySchedule, leagueID, fetch)
	if err != nil {
		return nil, err
	}
	return v.([]league.Event), nil
}

// ListActive returns live matches plus those starting soon or finished
// within the recency window.
func (a *Adapter) ListActive(ctx context.Context) ([]league.Event, error) {
	events, _, err := a.fetchMatches(ctx, "/matches/today", nil)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := events[:0]
	for _, e := range events {
		switch e.State {
		case league.StateLive:
			active = append(active, e)
		case league.StateScheduled:
			if e.StartTime.Sub(now) <= recentWindow {
				active = append(active, e)
			}
		case league.StateFinished:
			if now.Sub(e.StartTime) <= recentWindow {
				active = append(active, e)
			}
		}
	}
	return active, nil
}

// FetchDetails returns one match with its goal list. Detail freshness is
// paramount for goal detection, so this never reads the cache; it does
// write through so the API layer sees recent data.
func (a *Adapter) FetchDetails(ctx context.Context, eventID string) (*league.EventDetails, error) {
	var raw matchRaw
	err := a.client.GetJSON(ctx, "/matches/"+url.PathEscape(eventID), nil, &raw)
	if errors.Is(err, feedapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch football match %s: %w", eventID, err)
	}

	details := normalizeDetails(raw)
	if details == nil {
		// Malformed payload is "no data", never a crash for the caller.
		a.logger.Warn("Malformed football match detail", "id", eventID)
		return nil, nil
	}
	if a.cache != nil {
		a.cache.Put(cache.CategoryDetails, eventID, details, details.State == league.StateLive)
	}
	return details, nil
}

// DisplayInfo summarizes a fixture for reminder messages.
func (a *Adapter) DisplayInfo(e league.Event) league.DisplayInfo {
	return league.DisplayInfo{
		Title:        fmt.Sprintf("%s – %s", e.Home.Name, e.Away.Name),
		Participants: []string{e.Home.Name, e.Away.Name},
		Venue:        e.Venue,
		StartTime:    e.StartTime,
	}
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

func (a *Adapter) fetchMatches(ctx context.Context, path string, params url.Values) ([]league.Event, bool, error) {
	var resp matchListResponse
	if err := a.client.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, false, fmt.Errorf("fetch football matches: %w", err)
	}

	events := make([]league.Event, 0, len(resp.Matches))
	hasLive := false
	for _, m := range resp.Matches {
		e, ok := normalizeMatch(m)
		if !ok {
			a.logger.Warn("Skipping malformed football match", "id", m.ID)
			continue
		}
		if e.State == league.StateLive {
			hasLive = true
		}
		events = append(events, e)
	}
	return events, hasLive, nil
}

func normalizeMatch(raw matchRaw) (league.Event, bool) {
	if raw.ID == "" || raw.Home.ID == "" || raw.Away.ID == "" {
		return league.Event{}, false
	}
	kickOff, err := time.Parse(time.RFC3339, raw.KickOff)
	if err != nil {
		return league.Event{}, false
	}
	return league.Event{
		ID:        raw.ID,
		LeagueID:  leagueID,
		Round:     raw.Round,
		Home:      league.Team{ID: raw.Home.ID, Name: raw.Home.Name, Code: raw.Home.Code},
		Away:      league.Team{ID: raw.Away.ID, Name: raw.Away.Name, Code: raw.Away.Code},
		Venue:     raw.Venue,
		StartTime: kickOff,
		State:     normalizeState(raw.Status),
		HomeScore: raw.HomeScore,
		AwayScore: raw.AwayScore,
	}, true
}

func normalizeState(status string) league.State {
	switch status {
	case "live", "in_progress", "halftime":
		return league.StateLive
	case "finished", "full_time":
		return league.StateFinished
	case "postponed", "cancelled":
		return league.StatePostponed
	default:
		return league.StateScheduled
	}
}

func normalizeDetails(raw matchRaw) *league.EventDetails {
	event, ok := normalizeMatch(raw)
	if !ok {
		return nil
	}
	details := &league.EventDetails{Event: event}
	for _, g := range raw.Goals {
		side := league.SideHome
		if g.Side == "away" {
			side = league.SideAway
		}
		details.ScoringEvents = append(details.ScoringEvents, league.ScoringEvent{
			Side:       side,
			ScorerID:   g.PlayerID,
			ScorerName: g.PlayerName,
			Clock:      g.Minute,
			Period:     g.Half,
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
		})
	}
	return details
}
