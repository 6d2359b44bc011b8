// Package notify routes logical notification events (goals, pre-game
// reminders, test messages) to the configured delivery channels.
//
// Flow: build a Request with a targeting spec → the dispatcher renders it
// per channel (topic, condition over tags, or direct recipient token) →
// every configured channel gets at most one send attempt. There is no
// automatic retry: a failed send is counted, logged with redacted context,
// and the event is considered notified.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/matchwatch/matchwatch/internal/league"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Kind classifies a logical notification event.
type Kind string

const (
	KindGoal    Kind = "goal"
	KindPregame Kind = "pregame"
	KindTest    Kind = "test"
)

// Subscription tag gating all goal notifications.
const goalsTag = "goals"

// tokenRedactLen is how many leading token characters survive redaction.
const tokenRedactLen = 8

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Target is the addressing spec for a request. Exactly one of Token,
// Condition, Topic, or Topics should be set; they are checked in that order.
// Topics carries OR semantics across its entries.
type Target struct {
	Token     string
	Condition string
	Topic     string
	Topics    []string
}

// Request is one logical notification, constructed, dispatched, discarded.
type Request struct {
	Kind   Kind
	Title  string
	Body   string
	Data   map[string]string
	Target Target
}

// Result reports the outcome of a dispatch across all channels.
type Result struct {
	Delivered bool // at least one channel accepted the send
	Err       error
}

// Goal is a newly detected scoring event with its enriched context.
type Goal struct {
	Event       league.Event
	Scoring     league.ScoringEvent
	Fingerprint string
}

// Reminder is an imminent event start.
type Reminder struct {
	Event   league.Event
	Display league.DisplayInfo
}

// --------------------------------------------------------------------------
// Channel contract
// --------------------------------------------------------------------------

// ErrUnsupportedTarget is returned by channels for targeting modes they do
// not implement. The dispatcher counts these as skipped, not failed.
var ErrUnsupportedTarget = errors.New("targeting mode not supported by channel")

// Channel is one delivery backend. Each method reports an opaque message id
// on success.
type Channel interface {
	Name() string
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error)
	SendToCondition(ctx context.Context, condition, title, body string, data map[string]string) (string, error)
	SendToToken(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// ChannelStats tracks per-channel send counters and last-error state.
type ChannelStats struct {
	Sent       int64     `json:"sent"`
	Failed     int64     `json:"failed"`
	Skipped    int64     `json:"skipped"`
	LastSentAt time.Time `json:"last_sent_at"`
	LastError  string    `json:"last_error,omitempty"`
}
