// Package league defines the uniform contract every per-league data source
// implements, plus the normalized event model the watcher and the reminder
// scheduler consume.
package league

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Event model
// --------------------------------------------------------------------------

// State is the lifecycle state of an event.
type State string

const (
	StateScheduled State = "scheduled"
	StateLive      State = "live"
	StateFinished  State = "finished"
	StatePostponed State = "postponed"
)

// Side identifies which participant a scoring event belongs to.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Team is a participant in a team-sport event.
type Team struct {
	ID    string
	Name  string
	Code  string // short code, also the subscription tag suffix
}

// TopicTag returns the subscription tag for this team.
func (t Team) TopicTag() string {
	return "team_" + strings.ToLower(t.Code)
}

// Event is one normalized fixture or race, league-agnostic.
type Event struct {
	ID        string
	LeagueID  string
	Round     string
	Home      Team // zero value for individual sports
	Away      Team
	Title     string // individual sports: race name
	Venue     string
	StartTime time.Time
	State     State
	HomeScore int
	AwayScore int
}

// Individual reports whether the event has no team participants.
func (e Event) Individual() bool {
	return e.Home.ID == "" && e.Away.ID == ""
}

// ScoringEvent is one goal (or synthetic goal, for score-only feeds) inside
// an event's detail payload. Order in EventDetails is feed order.
type ScoringEvent struct {
	Side       Side
	ScorerID   string
	ScorerName string
	Clock      string // e.g. "67'" or "52:13"
	Period     string // e.g. "2H", "OT", "P2"
	HomeScore  int    // score after this goal
	AwayScore  int
}

// Fingerprint returns the deterministic identity key for a scoring event.
// Stable across repeated fetches of an unchanged event; always changes when
// the resulting score changes.
func (s ScoringEvent) Fingerprint(eventID string) string {
	return strings.Join([]string{
		eventID,
		s.Period,
		s.Clock,
		string(s.Side),
		s.ScorerID,
		fmt.Sprintf("%d-%d", s.HomeScore, s.AwayScore),
	}, "|")
}

// EventDetails is the rich per-event payload used for goal detection.
type EventDetails struct {
	Event
	ScoringEvents []ScoringEvent
}

// DisplayInfo is the human-facing summary used in reminder messages.
type DisplayInfo struct {
	Title        string
	Participants []string
	Venue        string
	StartTime    time.Time
}

// --------------------------------------------------------------------------
// Adapter contract
// --------------------------------------------------------------------------

// Adapter is the per-league data source. Implementations normalize their
// feed's JSON into the shared event model and never panic on malformed
// payloads — bad data is reported as an error or as "no data".
type Adapter interface {
	// ID returns the league identifier from the league registry.
	ID() string

	// ListAll returns every known event, including future ones.
	ListAll(ctx context.Context) ([]Event, error)

	// ListActive returns live, imminent, or recently concluded events,
	// per a league-specific recency window.
	ListActive(ctx context.Context) ([]Event, error)

	// FetchDetails returns the rich payload for one event, or (nil, nil)
	// when the event is unknown or the league has no detail feed.
	FetchDetails(ctx context.Context, eventID string) (*EventDetails, error)

	// DisplayInfo summarizes an event for user-facing messages.
	DisplayInfo(e Event) DisplayInfo

	// HasScoringDetail reports whether FetchDetails exposes per-goal
	// scoring events. Score-only leagues are diffed on aggregate score.
	HasScoringDetail() bool
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry maps league identifiers to adapters and preserves registration
// order, which is the polling order.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Registering the same ID twice replaces the
// adapter but keeps its position.
func (r *Registry) Register(a Adapter) {
	if _, exists := r.adapters[a.ID()]; !exists {
		r.order = append(r.order, a.ID())
	}
	r.adapters[a.ID()] = a
}

// Get returns the adapter for a league ID.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// All returns adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// IDs returns league IDs in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
