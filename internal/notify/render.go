package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchwatch/matchwatch/internal/league"
)

// --------------------------------------------------------------------------
// Goals
// --------------------------------------------------------------------------

// SendGoal dispatches a goal to two audiences: the scoring team's
// subscribers ("Goal!") and the opposing team's subscribers ("Goal
// against"). The primary send is awaited; the secondary runs on its own
// goroutine with its own error handling so a slow channel cannot block the
// watcher's cycle.
func (d *Dispatcher) SendGoal(ctx context.Context, g Goal) error {
	scoring, opposing := g.Event.Home, g.Event.Away
	if g.Scoring.Side == league.SideAway {
		scoring, opposing = opposing, scoring
	}

	data := goalData(g)

	primary := Request{
		Kind:  KindGoal,
		Title: fmt.Sprintf("Goal! %s", scoring.Name),
		Body:  goalBody(g, scoring),
		Data:  data,
		Target: Target{
			Condition: fmt.Sprintf("'%s' in topics && '%s' in topics", goalsTag, scoring.TopicTag()),
		},
	}

	secondary := Request{
		Kind:  KindGoal,
		Title: fmt.Sprintf("Goal against %s", opposing.Name),
		Body:  goalBody(g, scoring),
		Data:  data,
		Target: Target{
			Condition: fmt.Sprintf("'%s' in topics && '%s' in topics", goalsTag, opposing.TopicTag()),
		},
	}

	d.secondary.Add(1)
	go func() {
		defer d.secondary.Done()
		// Detached from the caller's cancellation: an in-flight send is
		// allowed to complete, its result only feeds the counters.
		d.Send(context.WithoutCancel(ctx), secondary)
	}()

	result := d.Send(ctx, primary)
	if !result.Delivered && result.Err != nil {
		return fmt.Errorf("dispatch goal %s: %w", g.Fingerprint, result.Err)
	}
	return nil
}

func goalBody(g Goal, scoring league.Team) string {
	scorer := g.Scoring.ScorerName
	if scorer == "" {
		scorer = scoring.Name
	}
	clock := g.Scoring.Clock
	if g.Scoring.Period != "" {
		clock = fmt.Sprintf("%s (%s)", g.Scoring.Clock, g.Scoring.Period)
	}
	return fmt.Sprintf("%s %s — %s %d–%d %s",
		scorer, clock,
		g.Event.Home.Name, g.Scoring.HomeScore, g.Scoring.AwayScore, g.Event.Away.Name)
}

func goalData(g Goal) map[string]string {
	return map[string]string{
		"type":        string(KindGoal),
		"event_id":    g.Event.ID,
		"league":      g.Event.LeagueID,
		"fingerprint": g.Fingerprint,
		"home_score":  fmt.Sprintf("%d", g.Scoring.HomeScore),
		"away_score":  fmt.Sprintf("%d", g.Scoring.AwayScore),
		"link":        deepLink(g.Event),
	}
}

// --------------------------------------------------------------------------
// Pre-game reminders
// --------------------------------------------------------------------------

// SendReminder dispatches a pre-game reminder. Team-sport fixtures target
// subscribers of either participant who enabled this league's reminders;
// individual sports target the league's category topic directly.
func (d *Dispatcher) SendReminder(ctx context.Context, r Reminder) error {
	tag := d.pregameTags[r.Event.LeagueID]
	if tag == "" {
		tag = "pregame_" + r.Event.LeagueID
	}

	req := Request{
		Kind:  KindPregame,
		Title: fmt.Sprintf("Starting soon: %s", r.Display.Title),
		Body:  reminderBody(r, d.clock.Now()),
		Data: map[string]string{
			"type":     string(KindPregame),
			"event_id": r.Event.ID,
			"league":   r.Event.LeagueID,
			"starts":   r.Event.StartTime.UTC().Format(time.RFC3339),
			"link":     deepLink(r.Event),
		},
	}

	if r.Event.Individual() {
		req.Target = Target{Topic: tag}
	} else {
		req.Target = Target{
			Condition: fmt.Sprintf("'%s' in topics && ('%s' in topics || '%s' in topics)",
				tag, r.Event.Home.TopicTag(), r.Event.Away.TopicTag()),
		}
	}

	result := d.Send(ctx, req)
	if !result.Delivered && result.Err != nil {
		return fmt.Errorf("dispatch reminder for %s: %w", r.Event.ID, result.Err)
	}
	return nil
}

func reminderBody(r Reminder, now time.Time) string {
	until := r.Display.StartTime.Sub(now).Round(time.Minute)
	parts := []string{}
	if len(r.Display.Participants) > 0 {
		parts = append(parts, strings.Join(r.Display.Participants, " vs "))
	}
	if r.Display.Venue != "" {
		parts = append(parts, "at "+r.Display.Venue)
	}
	if until > 0 {
		parts = append(parts, fmt.Sprintf("starts in %s", until))
	}
	if len(parts) == 0 {
		return r.Display.Title
	}
	return strings.Join(parts, ", ")
}

// --------------------------------------------------------------------------
// Test messages
// --------------------------------------------------------------------------

// SendTest dispatches a test message, used by the API layer and watchctl.
func (d *Dispatcher) SendTest(ctx context.Context, title, body string, target Target) Result {
	return d.Send(ctx, Request{
		Kind:   KindTest,
		Title:  title,
		Body:   body,
		Data:   map[string]string{"type": string(KindTest)},
		Target: target,
	})
}

func deepLink(e league.Event) string {
	return fmt.Sprintf("matchwatch://event/%s/%s", e.LeagueID, e.ID)
}
