package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/league"
)

// recordingChannel captures every send for assertions.
type recordingChannel struct {
	mu            sync.Mutex
	name          string
	conditionOnly bool // refuse topic/token sends
	topicOnly     bool // refuse condition/token sends
	failWith      error
	sends         []recordedSend
}

type recordedSend struct {
	Mode   string // topic|condition|token
	Target string
	Title  string
	Body   string
	Data   map[string]string
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) record(mode, target, title, body string, data map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return "", r.failWith
	}
	r.sends = append(r.sends, recordedSend{mode, target, title, body, data})
	return "msg-1", nil
}

func (r *recordingChannel) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error) {
	if r.conditionOnly {
		return "", ErrUnsupportedTarget
	}
	return r.record("topic", topic, title, body, data)
}

func (r *recordingChannel) SendToCondition(ctx context.Context, condition, title, body string, data map[string]string) (string, error) {
	if r.topicOnly {
		return "", ErrUnsupportedTarget
	}
	return r.record("condition", condition, title, body, data)
}

func (r *recordingChannel) SendToToken(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	if r.conditionOnly || r.topicOnly {
		return "", ErrUnsupportedTarget
	}
	return r.record("token", token, title, body, data)
}

func (r *recordingChannel) recorded() []recordedSend {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedSend, len(r.sends))
	copy(out, r.sends)
	return out
}

func newTestDispatcher(channels ...Channel) (*Dispatcher, *activity.Log) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC))
	log := activity.New(clk, "", 50, nil)
	d := NewDispatcher(channels, clk, map[string]string{"football": "pregame_football"}, log, nil)
	return d, log
}

func testGoal() Goal {
	event := league.Event{
		ID: "e1", LeagueID: "football",
		Home: league.Team{ID: "t1", Name: "KR Reykjavík", Code: "KR"},
		Away: league.Team{ID: "t2", Name: "Valur", Code: "VAL"},
	}
	scoring := league.ScoringEvent{
		Side: league.SideHome, ScorerID: "p10", ScorerName: "A. Björnsson",
		Clock: "67'", Period: "2H", HomeScore: 2, AwayScore: 1,
	}
	return Goal{Event: event, Scoring: scoring, Fingerprint: scoring.Fingerprint(event.ID)}
}

func TestSendGoalTargetsBothAudiences(t *testing.T) {
	ch := &recordingChannel{name: "fcm"}
	d, _ := newTestDispatcher(ch)

	require.NoError(t, d.SendGoal(context.Background(), testGoal()))
	d.Flush()

	sends := ch.recorded()
	require.Len(t, sends, 2, "primary and secondary audiences")

	var primary, secondary *recordedSend
	for i := range sends {
		if strings.Contains(sends[i].Target, "team_kr") {
			primary = &sends[i]
		}
		if strings.Contains(sends[i].Target, "team_val") {
			secondary = &sends[i]
		}
	}
	require.NotNil(t, primary, "scoring team audience")
	require.NotNil(t, secondary, "opposing team audience")

	assert.Equal(t, "condition", primary.Mode)
	assert.Contains(t, primary.Target, "'goals' in topics &&")
	assert.Equal(t, "Goal! KR Reykjavík", primary.Title)
	assert.Equal(t, "Goal against Valur", secondary.Title)
	assert.Contains(t, primary.Body, "KR Reykjavík 2–1 Valur")
	assert.Equal(t, primary.Body, secondary.Body, "score line is shared")
	assert.Equal(t, "e1", primary.Data["event_id"])
	assert.NotEmpty(t, primary.Data["fingerprint"])
}

func TestSendGoalCountsBothSends(t *testing.T) {
	good := &recordingChannel{name: "fcm"}
	d, _ := newTestDispatcher(good)

	require.NoError(t, d.SendGoal(context.Background(), testGoal()))
	d.Flush()

	stats := d.Stats()
	assert.Equal(t, int64(2), stats["fcm"].Sent)
}

func TestSendReminderTeamSport(t *testing.T) {
	ch := &recordingChannel{name: "fcm"}
	d, _ := newTestDispatcher(ch)

	g := testGoal()
	r := Reminder{
		Event: g.Event,
		Display: league.DisplayInfo{
			Title:        "KR Reykjavík – Valur",
			Participants: []string{"KR Reykjavík", "Valur"},
			Venue:        "Meistaravellir",
			StartTime:    time.Date(2026, 3, 1, 19, 5, 0, 0, time.UTC),
		},
	}
	require.NoError(t, d.SendReminder(context.Background(), r))

	sends := ch.recorded()
	require.Len(t, sends, 1)
	assert.Equal(t, "condition", sends[0].Mode)
	assert.Equal(t,
		"'pregame_football' in topics && ('team_kr' in topics || 'team_val' in topics)",
		sends[0].Target)
	assert.Contains(t, sends[0].Body, "at Meistaravellir")
	assert.Contains(t, sends[0].Body, "starts in 5m")
}

func TestSendReminderIndividualSportUsesCategoryTopic(t *testing.T) {
	ch := &recordingChannel{name: "fcm"}
	d, _ := newTestDispatcher(ch)

	r := Reminder{
		Event: league.Event{ID: "r1", LeagueID: "cycling", Title: "Spring Time Trial",
			StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		Display: league.DisplayInfo{Title: "Spring Time Trial", Venue: "Ring Road",
			StartTime: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, d.SendReminder(context.Background(), r))

	sends := ch.recorded()
	require.Len(t, sends, 1)
	assert.Equal(t, "topic", sends[0].Mode)
	assert.Equal(t, "pregame_cycling", sends[0].Target)
}

func TestFailedSendCountedAndRedacted(t *testing.T) {
	ch := &recordingChannel{name: "fcm", failWith: errors.New("quota exceeded")}
	d, log := newTestDispatcher(ch)

	res := d.Send(context.Background(), Request{
		Kind:   KindTest,
		Title:  "Test",
		Body:   "ping",
		Target: Target{Token: "fcm-token-abcdef-0123456789"},
	})
	assert.False(t, res.Delivered)
	assert.Error(t, res.Err)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats["fcm"].Failed)
	assert.Equal(t, int64(0), stats["fcm"].Sent)
	assert.Contains(t, stats["fcm"].LastError, "quota exceeded")

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "fcm.send", entries[0].Operation)
	assert.Equal(t, "fcm-toke…", entries[0].Context["token"], "token truncated")
	assert.NotContains(t, entries[0].Context["token"], "0123456789")
}

func TestTopicSetFallsBackPerTopicOnTopicOnlyChannel(t *testing.T) {
	ch := &recordingChannel{name: "telegram", topicOnly: true}
	d, _ := newTestDispatcher(ch)

	res := d.Send(context.Background(), Request{
		Kind:   KindTest,
		Title:  "Test",
		Body:   "ping",
		Target: Target{Topics: []string{"team_kr", "team_val"}},
	})
	assert.True(t, res.Delivered)

	sends := ch.recorded()
	require.Len(t, sends, 2)
	assert.Equal(t, "topic", sends[0].Mode)
	assert.Equal(t, "team_kr", sends[0].Target)
	assert.Equal(t, "team_val", sends[1].Target)
}

func TestUnsupportedTargetCountsAsSkippedNotFailed(t *testing.T) {
	tg := &recordingChannel{name: "telegram", topicOnly: true}
	fcm := &recordingChannel{name: "fcm"}
	d, _ := newTestDispatcher(fcm, tg)

	res := d.Send(context.Background(), Request{
		Kind:   KindGoal,
		Title:  "Goal!",
		Body:   "2–1",
		Target: Target{Condition: "'goals' in topics"},
	})
	assert.True(t, res.Delivered)
	assert.NoError(t, res.Err)

	stats := d.Stats()
	assert.Equal(t, int64(1), stats["fcm"].Sent)
	assert.Equal(t, int64(1), stats["telegram"].Skipped)
	assert.Equal(t, int64(0), stats["telegram"].Failed)
}

func TestOrTopicsCondition(t *testing.T) {
	assert.Equal(t, "'a' in topics || 'b' in topics", orTopicsCondition([]string{"a", "b"}))
}
