package watch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/notify"
	"github.com/matchwatch/matchwatch/internal/store"
)

// fakeAdapter serves canned snapshots and lets tests mutate them between polls.
type fakeAdapter struct {
	id        string
	hasDetail bool
	active    []league.Event
	details   map[string]*league.EventDetails
	listErr   error
	detailErr error
}

func (f *fakeAdapter) ID() string             { return f.id }
func (f *fakeAdapter) HasScoringDetail() bool { return f.hasDetail }

func (f *fakeAdapter) ListAll(ctx context.Context) ([]league.Event, error) {
	return f.active, f.listErr
}

func (f *fakeAdapter) ListActive(ctx context.Context) ([]league.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.active, nil
}

func (f *fakeAdapter) FetchDetails(ctx context.Context, eventID string) (*league.EventDetails, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[eventID], nil
}

func (f *fakeAdapter) DisplayInfo(e league.Event) league.DisplayInfo {
	return league.DisplayInfo{Title: e.Home.Name + " – " + e.Away.Name, StartTime: e.StartTime}
}

// fakeSink records dispatched goals.
type fakeSink struct {
	goals []notify.Goal
	err   error
}

func (s *fakeSink) SendGoal(ctx context.Context, g notify.Goal) error {
	s.goals = append(s.goals, g)
	return s.err
}

func liveEvent(id string) league.Event {
	return league.Event{
		ID: id, LeagueID: "football", State: league.StateLive,
		Home: league.Team{ID: "t1", Name: "KR", Code: "KR"},
		Away: league.Team{ID: "t2", Name: "Valur", Code: "VAL"},
	}
}

func goalAt(side league.Side, clock, half string, home, away int) league.ScoringEvent {
	return league.ScoringEvent{
		Side: side, ScorerID: "p1", ScorerName: "Scorer",
		Clock: clock, Period: half, HomeScore: home, AwayScore: away,
	}
}

func newTestWatcher(adapters ...league.Adapter) (*Watcher, *fakeSink, *clock.Manual) {
	reg := league.NewRegistry()
	for _, a := range adapters {
		reg.Register(a)
	}
	sink := &fakeSink{}
	clk := clock.NewManual(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	w := New(reg, sink, clk, Config{ActiveDelay: 15 * time.Second, IdleDelay: 60 * time.Second}, nil, nil, nil)
	return w, sink, clk
}

func TestBackfillSuppression(t *testing.T) {
	e := liveEvent("e1")
	adapter := &fakeAdapter{
		id: "football", hasDetail: true,
		active: []league.Event{e},
		details: map[string]*league.EventDetails{
			"e1": {Event: e, ScoringEvents: []league.ScoringEvent{
				goalAt(league.SideHome, "12'", "1H", 1, 0),
				goalAt(league.SideAway, "30'", "1H", 1, 1),
				goalAt(league.SideHome, "55'", "2H", 2, 1),
			}},
		},
	}
	w, sink, _ := newTestWatcher(adapter)

	active, goals := w.Cycle(context.Background())
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, goals, "first sighting emits nothing")
	assert.Empty(t, sink.goals)
	assert.Equal(t, 3, w.seen.Count("e1"), "registry holds exactly the K present goals")
}

func TestGoalDetectionScenario(t *testing.T) {
	e := liveEvent("e1")
	g1 := goalAt(league.SideHome, "12'", "1H", 1, 0)
	adapter := &fakeAdapter{
		id: "football", hasDetail: true,
		active: []league.Event{e},
		details: map[string]*league.EventDetails{
			"e1": {Event: e, ScoringEvents: []league.ScoringEvent{g1}},
		},
	}
	w, sink, _ := newTestWatcher(adapter)
	ctx := context.Background()

	// Poll 1: [G1] present → back-fill, no notification.
	w.Cycle(ctx)
	require.Empty(t, sink.goals)

	// Poll 2: [G1, G2] → exactly one notification for G2.
	g2 := goalAt(league.SideAway, "67'", "2H", 1, 1)
	adapter.details["e1"].ScoringEvents = []league.ScoringEvent{g1, g2}
	w.Cycle(ctx)
	require.Len(t, sink.goals, 1)
	assert.Equal(t, g2.Fingerprint("e1"), sink.goals[0].Fingerprint)
	assert.Equal(t, league.SideAway, sink.goals[0].Scoring.Side)

	// Poll 3: unchanged snapshot → zero notifications (idempotence).
	w.Cycle(ctx)
	assert.Len(t, sink.goals, 1)
}

func TestGoalsDispatchedInFeedOrder(t *testing.T) {
	e := liveEvent("e1")
	g1 := goalAt(league.SideHome, "12'", "1H", 1, 0)
	adapter := &fakeAdapter{
		id: "football", hasDetail: true,
		active:  []league.Event{e},
		details: map[string]*league.EventDetails{"e1": {Event: e, ScoringEvents: []league.ScoringEvent{g1}}},
	}
	w, sink, _ := newTestWatcher(adapter)
	ctx := context.Background()
	w.Cycle(ctx)

	g2 := goalAt(league.SideHome, "40'", "1H", 2, 0)
	g3 := goalAt(league.SideAway, "44'", "1H", 2, 1)
	adapter.details["e1"].ScoringEvents = []league.ScoringEvent{g1, g2, g3}
	w.Cycle(ctx)

	require.Len(t, sink.goals, 2)
	assert.Equal(t, g2.Fingerprint("e1"), sink.goals[0].Fingerprint)
	assert.Equal(t, g3.Fingerprint("e1"), sink.goals[1].Fingerprint)
}

func TestScoreOnlyLeagueDiffing(t *testing.T) {
	e := league.Event{
		ID: "h1", LeagueID: "handball", State: league.StateLive,
		Home:      league.Team{ID: "t1", Name: "Haukar", Code: "HAU"},
		Away:      league.Team{ID: "t2", Name: "Fram", Code: "FRA"},
		HomeScore: 11, AwayScore: 9,
	}
	adapter := &fakeAdapter{id: "handball", active: []league.Event{e}}
	w, sink, _ := newTestWatcher(adapter)
	ctx := context.Background()

	// First sighting at 11–9: back-fill, no notifications.
	w.Cycle(ctx)
	require.Empty(t, sink.goals)

	// Home scores twice in one poll window: one synthetic goal, not two.
	adapter.active[0].HomeScore = 13
	w.Cycle(ctx)
	require.Len(t, sink.goals, 1)
	assert.Equal(t, league.SideHome, sink.goals[0].Scoring.Side)
	assert.Equal(t, 13, sink.goals[0].Scoring.HomeScore)

	// Both sides score: one goal per side.
	adapter.active[0].HomeScore = 14
	adapter.active[0].AwayScore = 10
	w.Cycle(ctx)
	require.Len(t, sink.goals, 3)
	assert.Equal(t, league.SideHome, sink.goals[1].Scoring.Side)
	assert.Equal(t, league.SideAway, sink.goals[2].Scoring.Side)

	// Unchanged score: nothing.
	w.Cycle(ctx)
	assert.Len(t, sink.goals, 3)
}

func TestLeagueFailureIsolation(t *testing.T) {
	broken := &fakeAdapter{id: "football", hasDetail: true, listErr: errors.New("feed down")}

	e := league.Event{
		ID: "h1", LeagueID: "handball", State: league.StateLive,
		Home:      league.Team{ID: "t1", Name: "Haukar", Code: "HAU"},
		Away:      league.Team{ID: "t2", Name: "Fram", Code: "FRA"},
		HomeScore: 1,
	}
	healthy := &fakeAdapter{id: "handball", active: []league.Event{e}}

	w, sink, _ := newTestWatcher(broken, healthy)
	ctx := context.Background()

	w.Cycle(ctx)
	healthy.active[0].HomeScore = 2
	active, goals := w.Cycle(ctx)

	assert.Equal(t, 1, active, "healthy league still polled")
	assert.Equal(t, 1, goals)
	require.Len(t, sink.goals, 1)
}

func TestDispatchFailureDoesNotBlockRemainingGoals(t *testing.T) {
	e := liveEvent("e1")
	g1 := goalAt(league.SideHome, "12'", "1H", 1, 0)
	adapter := &fakeAdapter{
		id: "football", hasDetail: true,
		active:  []league.Event{e},
		details: map[string]*league.EventDetails{"e1": {Event: e, ScoringEvents: []league.ScoringEvent{g1}}},
	}
	w, sink, _ := newTestWatcher(adapter)
	sink.err = errors.New("channel down")
	ctx := context.Background()

	w.Cycle(ctx)
	g2 := goalAt(league.SideHome, "40'", "1H", 2, 0)
	g3 := goalAt(league.SideAway, "44'", "1H", 2, 1)
	adapter.details["e1"].ScoringEvents = []league.ScoringEvent{g1, g2, g3}
	_, goals := w.Cycle(ctx)

	assert.Equal(t, 2, goals, "both goals attempted despite failures")
	assert.Len(t, sink.goals, 2)

	// The failed dispatches still count as notified: no retry next cycle.
	_, goals = w.Cycle(ctx)
	assert.Equal(t, 0, goals)
}

func TestNextDelayAdaptsToActivity(t *testing.T) {
	w, _, _ := newTestWatcher()
	assert.Equal(t, 15*time.Second, w.nextDelay(2))
	assert.Equal(t, 60*time.Second, w.nextDelay(0))
}

func TestAbsentDetailsTreatedAsNoData(t *testing.T) {
	e := liveEvent("e1")
	adapter := &fakeAdapter{id: "football", hasDetail: true, active: []league.Event{e},
		details: map[string]*league.EventDetails{}}
	w, sink, _ := newTestWatcher(adapter)

	active, goals := w.Cycle(context.Background())
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, goals)
	assert.Empty(t, sink.goals)
	assert.False(t, w.seen.Known("e1"), "absent details never start tracking")
}

func TestAnnounceGatedBySeenGames(t *testing.T) {
	e := liveEvent("e1")
	adapter := &fakeAdapter{
		id: "football", hasDetail: true,
		active:  []league.Event{e},
		details: map[string]*league.EventDetails{"e1": {Event: e}},
	}

	path := filepath.Join(t.TempDir(), "seen_games.json")
	seenGames := store.LoadIDList(path, 10, nil)

	reg := league.NewRegistry()
	reg.Register(adapter)
	clk := clock.NewManual(time.Unix(0, 0))
	w := New(reg, &fakeSink{}, clk, Config{ActiveDelay: time.Second, IdleDelay: time.Minute}, seenGames, nil, nil)

	w.Cycle(context.Background())
	assert.True(t, seenGames.Contains("e1"), "first sighting recorded durably")
}
