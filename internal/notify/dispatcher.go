package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/clock"
)

// Dispatcher fans logical notification events out to all configured
// channels. It is safe for concurrent use by the watcher, the reminder
// scheduler and the API layer.
type Dispatcher struct {
	channels    []Channel
	clock       clock.Clock
	logger      *slog.Logger
	activityLog *activity.Log
	pregameTags map[string]string // league id -> pregame topic tag

	mu    sync.Mutex
	stats map[string]*ChannelStats

	secondary sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given channels. pregameTags
// maps league ids to the subscription tag gating that league's reminders.
func NewDispatcher(channels []Channel, clk clock.Clock, pregameTags map[string]string, activityLog *activity.Log, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	stats := make(map[string]*ChannelStats, len(channels))
	for _, ch := range channels {
		stats[ch.Name()] = &ChannelStats{}
	}
	return &Dispatcher{
		channels:    channels,
		clock:       clk,
		logger:      logger,
		activityLog: activityLog,
		pregameTags: pregameTags,
		stats:       stats,
	}
}

// Send dispatches one request through every channel. Each channel gets at
// most one attempt; per-channel failures are counted and logged but do not
// stop the fan-out. Delivered is true if any channel accepted.
func (d *Dispatcher) Send(ctx context.Context, req Request) Result {
	if len(d.channels) == 0 {
		return Result{Err: fmt.Errorf("no delivery channels configured")}
	}

	delivered := false
	var firstErr error
	for _, ch := range d.channels {
		msgID, err := d.sendToChannel(ctx, ch, req)
		switch {
		case err == nil:
			delivered = true
			d.recordSent(ch.Name())
			d.logger.Info("Notification sent",
				"channel", ch.Name(), "kind", string(req.Kind), "message_id", msgID)
		case isSkip(err):
			d.recordSkipped(ch.Name())
		default:
			d.recordFailed(ch.Name(), err)
			d.logOperationError(ch.Name(), req, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return Result{Delivered: delivered, Err: firstErr}
}

// sendToChannel resolves the targeting spec against one channel. Token,
// condition, single topic, then topic set, in that order.
func (d *Dispatcher) sendToChannel(ctx context.Context, ch Channel, req Request) (string, error) {
	t := req.Target
	switch {
	case t.Token != "":
		return ch.SendToToken(ctx, t.Token, req.Title, req.Body, req.Data)
	case t.Condition != "":
		return ch.SendToCondition(ctx, t.Condition, req.Title, req.Body, req.Data)
	case t.Topic != "":
		return ch.SendToTopic(ctx, t.Topic, req.Title, req.Body, req.Data)
	case len(t.Topics) == 1:
		return ch.SendToTopic(ctx, t.Topics[0], req.Title, req.Body, req.Data)
	case len(t.Topics) > 1:
		msgID, err := ch.SendToCondition(ctx, orTopicsCondition(t.Topics), req.Title, req.Body, req.Data)
		if !isSkip(err) {
			return msgID, err
		}
		// Topic-only channels get one send per topic instead.
		var lastID string
		sent := false
		for _, topic := range t.Topics {
			id, terr := ch.SendToTopic(ctx, topic, req.Title, req.Body, req.Data)
			if terr == nil {
				lastID, sent = id, true
			} else if !isSkip(terr) {
				return "", terr
			}
		}
		if !sent {
			return "", ErrUnsupportedTarget
		}
		return lastID, nil
	default:
		return "", fmt.Errorf("request has no target")
	}
}

// Flush waits for outstanding fire-and-forget secondary sends. Used on
// shutdown and by tests.
func (d *Dispatcher) Flush() {
	d.secondary.Wait()
}

// Stats returns a copy of the per-channel counters.
func (d *Dispatcher) Stats() map[string]ChannelStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]ChannelStats, len(d.stats))
	for name, s := range d.stats {
		out[name] = *s
	}
	return out
}

// --------------------------------------------------------------------------
// Counter and error-log plumbing
// --------------------------------------------------------------------------

func (d *Dispatcher) recordSent(channel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.channelStats(channel)
	s.Sent++
	s.LastSentAt = d.clock.Now()
}

func (d *Dispatcher) recordSkipped(channel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channelStats(channel).Skipped++
}

func (d *Dispatcher) recordFailed(channel string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.channelStats(channel)
	s.Failed++
	s.LastError = err.Error()
}

// channelStats must be called with the mutex held.
func (d *Dispatcher) channelStats(channel string) *ChannelStats {
	s, ok := d.stats[channel]
	if !ok {
		s = &ChannelStats{}
		d.stats[channel] = s
	}
	return s
}

func (d *Dispatcher) logOperationError(channel string, req Request, err error) {
	d.logger.Warn("Notification send failed",
		"channel", channel, "kind", string(req.Kind), "error", err)
	if d.activityLog == nil {
		return
	}
	ctxMap := map[string]string{
		"channel": channel,
		"kind":    string(req.Kind),
		"title":   req.Title,
	}
	// Recipient tokens are never logged in full.
	if req.Target.Token != "" {
		ctxMap["token"] = redactToken(req.Target.Token)
	}
	if req.Target.Condition != "" {
		ctxMap["condition"] = req.Target.Condition
	}
	d.activityLog.Record(channel+".send", err, ctxMap)
}

func redactToken(token string) string {
	if len(token) <= tokenRedactLen {
		return token
	}
	return token[:tokenRedactLen] + "…"
}

func isSkip(err error) bool {
	return errors.Is(err, ErrUnsupportedTarget)
}

func orTopicsCondition(topics []string) string {
	cond := ""
	for i, t := range topics {
		if i > 0 {
			cond += " || "
		}
		cond += fmt.Sprintf("'%s' in topics", t)
	}
	return cond
}
