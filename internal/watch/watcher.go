// Package watch polls active events across all leagues, diffs each event's
// scoring list against what was already notified, and hands newly observed
// goals to the notification dispatcher.
//
// Exactly one cycle is in flight at a time: the next cycle's delay is
// computed after the previous one completes, so slow feeds can never cause
// overlapping runs. One league's failure never prevents the others from
// being polled in the same cycle.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/notify"
	"github.com/matchwatch/matchwatch/internal/store"
)

// Sink receives newly detected goals. Implemented by notify.Dispatcher.
type Sink interface {
	SendGoal(ctx context.Context, g notify.Goal) error
}

// Config controls the watcher's cadence.
type Config struct {
	ActiveDelay time.Duration // previous cycle saw at least one active event
	IdleDelay   time.Duration
}

// Stats is a snapshot of the watcher's state for the API layer.
type Stats struct {
	LastCycleAt     time.Time `json:"last_cycle_at"`
	LastCycleActive int       `json:"last_cycle_active"`
	LastCycleGoals  int       `json:"last_cycle_goals"`
	TotalGoals      int64     `json:"total_goals"`
	TotalCycles     int64     `json:"total_cycles"`
	TrackedEvents   int       `json:"tracked_events"`
}

type scorePair struct {
	home, away int
}

// Watcher drives the goal-detection poll loop.
type Watcher struct {
	leagues     *league.Registry
	sink        Sink
	clock       clock.Clock
	logger      *slog.Logger
	activityLog *activity.Log
	cfg         Config

	seen      *SeenRegistry
	seenGames *store.IDList // optional, durable "now tracking" gate

	mu         sync.Mutex
	lastScores map[string]scorePair // score-only leagues: previous poll's scores
	stats      Stats
}

// New creates a watcher. seenGames may be nil to disable the durable
// new-game announcements.
func New(leagues *league.Registry, sink Sink, clk clock.Clock, cfg Config, seenGames *store.IDList, activityLog *activity.Log, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		leagues:     leagues,
		sink:        sink,
		clock:       clk,
		logger:      logger,
		activityLog: activityLog,
		cfg:         cfg,
		seen:        NewSeenRegistry(),
		seenGames:   seenGames,
		lastScores:  make(map[string]scorePair),
	}
}

// Run polls until ctx is cancelled. Blocks; intended to be called with `go`.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("Goal watcher started",
		"active_delay", w.cfg.ActiveDelay, "idle_delay", w.cfg.IdleDelay,
		"leagues", w.leagues.IDs())

	for {
		active, _ := w.Cycle(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Goal watcher stopped")
			return
		case <-w.clock.After(w.nextDelay(active)):
		}
	}
}

// nextDelay picks the post-cycle delay: short while anything is active,
// long otherwise. Always computed after a cycle completes, so cycles can
// never overlap.
func (w *Watcher) nextDelay(active int) time.Duration {
	if active > 0 {
		return w.cfg.ActiveDelay
	}
	return w.cfg.IdleDelay
}

// Cycle polls every league once, in registry order. Returns the number of
// active events observed and the number of new goals dispatched.
func (w *Watcher) Cycle(ctx context.Context) (active, goals int) {
	for _, adapter := range w.leagues.All() {
		a, g := w.pollLeague(ctx, adapter)
		active += a
		goals += g
	}

	w.mu.Lock()
	w.stats.LastCycleAt = w.clock.Now()
	w.stats.LastCycleActive = active
	w.stats.LastCycleGoals = goals
	w.stats.TotalGoals += int64(goals)
	w.stats.TotalCycles++
	w.stats.TrackedEvents = w.seen.TrackedEvents()
	w.mu.Unlock()

	if goals > 0 {
		w.logger.Info("Cycle complete", "active", active, "new_goals", goals)
	}
	return active, goals
}

// pollLeague processes one league. Errors are logged and isolated so other
// leagues still run in the same cycle.
func (w *Watcher) pollLeague(ctx context.Context, adapter league.Adapter) (active, goals int) {
	events, err := adapter.ListActive(ctx)
	if err != nil {
		w.logger.Warn("League poll failed", "league", adapter.ID(), "error", err)
		w.recordError("watch.list_active", err, adapter.ID(), "")
		return 0, 0
	}

	for _, e := range events {
		if e.State != league.StateLive {
			continue
		}
		active++

		var detected []notify.Goal
		if adapter.HasScoringDetail() {
			detected, err = w.diffDetails(ctx, adapter, e)
			if err != nil {
				w.logger.Warn("Detail fetch failed", "league", adapter.ID(), "event", e.ID, "error", err)
				w.recordError("watch.fetch_details", err, adapter.ID(), e.ID)
				continue
			}
		} else {
			detected = w.diffScore(e)
		}

		// Dispatch in discovery order, immediately. A dispatch failure is
		// logged and does not block the remaining goals or future cycles.
		for _, g := range detected {
			goals++
			if err := w.sink.SendGoal(ctx, g); err != nil {
				w.logger.Warn("Goal dispatch failed",
					"event", g.Event.ID, "fingerprint", g.Fingerprint, "error", err)
				w.recordError("watch.dispatch_goal", err, adapter.ID(), g.Event.ID)
			}
		}
	}
	return active, goals
}

// diffDetails fetches fresh details (bypassing the schedule cache — detail
// freshness is paramount here) and diffs the scoring list against the
// registry.
func (w *Watcher) diffDetails(ctx context.Context, adapter league.Adapter, e league.Event) ([]notify.Goal, error) {
	details, err := adapter.FetchDetails(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		// Unknown event or malformed payload: no data, never a crash.
		return nil, nil
	}

	if !w.seen.Known(e.ID) {
		fps := make([]string, len(details.ScoringEvents))
		for i, s := range details.ScoringEvents {
			fps[i] = s.Fingerprint(e.ID)
		}
		w.seen.Backfill(e.ID, fps)
		w.announce(details.Event)
		return nil, nil
	}

	var goals []notify.Goal
	for _, s := range details.ScoringEvents {
		fp := s.Fingerprint(e.ID)
		if w.seen.MarkSeen(e.ID, fp) {
			goals = append(goals, notify.Goal{Event: details.Event, Scoring: s, Fingerprint: fp})
		}
	}
	return goals, nil
}

// diffScore detects goals for leagues without event-level detail by
// comparing the previous poll's score pair to the current one. A side's
// score increasing by any amount counts as exactly one goal for that side;
// batched multi-goal jumps are not split (known source-feed limitation).
func (w *Watcher) diffScore(e league.Event) []notify.Goal {
	w.mu.Lock()
	prev, known := w.lastScores[e.ID]
	w.lastScores[e.ID] = scorePair{e.HomeScore, e.AwayScore}
	w.mu.Unlock()

	if !known {
		// First sighting: suppress whatever score is already on the board.
		w.seen.Backfill(e.ID, nil)
		w.announce(e)
		return nil
	}

	var goals []notify.Goal
	if e.HomeScore > prev.home {
		goals = append(goals, w.syntheticGoal(e, league.SideHome))
	}
	if e.AwayScore > prev.away {
		goals = append(goals, w.syntheticGoal(e, league.SideAway))
	}
	return goals
}

func (w *Watcher) syntheticGoal(e league.Event, side league.Side) notify.Goal {
	s := league.ScoringEvent{
		Side:      side,
		HomeScore: e.HomeScore,
		AwayScore: e.AwayScore,
	}
	fp := s.Fingerprint(e.ID)
	w.seen.MarkSeen(e.ID, fp)
	return notify.Goal{Event: e, Scoring: s, Fingerprint: fp}
}

// announce logs the one-time "now tracking" event, durably gated so a
// restart mid-season does not repeat it.
func (w *Watcher) announce(e league.Event) {
	if w.seenGames != nil && !w.seenGames.Add(e.ID) {
		return
	}
	w.logger.Info("Now tracking event",
		"league", e.LeagueID, "event", e.ID,
		"score", fmt.Sprintf("%d-%d", e.HomeScore, e.AwayScore))
}

// Stats returns a snapshot of the watcher's counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.TrackedEvents = w.seen.TrackedEvents()
	return s
}

func (w *Watcher) recordError(operation string, err error, leagueID, eventID string) {
	if w.activityLog == nil {
		return
	}
	ctxMap := map[string]string{"league": leagueID}
	if eventID != "" {
		ctxMap["event"] = eventID
	}
	w.activityLog.Record(operation, err, ctxMap)
}
