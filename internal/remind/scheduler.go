// Package remind schedules pre-game reminder notifications. A daily scan
// (plus one at startup) walks every league's calendar, picks events starting
// within the horizon, and arms a single-fire timer per event at
// start − offset. The sent registry is durable and rechecked at fire time,
// so rescans, restarts, and overlapping scans can never double-send.
package remind

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/notify"
	"github.com/matchwatch/matchwatch/internal/store"
)

// Sink receives due reminders. Implemented by notify.Dispatcher.
type Sink interface {
	SendReminder(ctx context.Context, r notify.Reminder) error
}

// Config controls scan cadence and reminder timing.
type Config struct {
	Offset   time.Duration // fire this long before the event starts
	ScanHour int           // local hour of the daily calendar scan
	Horizon  time.Duration // schedule only events starting within this window
}

// Stats is a snapshot of the scheduler's state for the API layer.
type Stats struct {
	LastScanAt time.Time `json:"last_scan_at"`
	Pending    int       `json:"pending"`
	TotalScans int64     `json:"total_scans"`
	TotalSent  int64     `json:"total_sent"`
}

type pending struct {
	timer    clock.Timer
	notifyAt time.Time
}

// Scheduler arms and fires pre-game reminder timers.
type Scheduler struct {
	leagues     *league.Registry
	sink        Sink
	clock       clock.Clock
	logger      *slog.Logger
	activityLog *activity.Log
	cfg         Config
	sent        *store.IDList

	cron *cron.Cron

	mu      sync.Mutex
	pending map[string]pending // event id -> armed timer
	stats   Stats
}

// New creates a scheduler. sent must be non-nil: it is the exactly-once
// guarantee across restarts.
func New(leagues *league.Registry, sink Sink, clk clock.Clock, cfg Config, sent *store.IDList, activityLog *activity.Log, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 24 * time.Hour
	}
	return &Scheduler{
		leagues:     leagues,
		sink:        sink,
		clock:       clk,
		logger:      logger,
		activityLog: activityLog,
		cfg:         cfg,
		sent:        sent,
		pending:     make(map[string]pending),
	}
}

// Start runs an immediate scan, then arms the daily rescan. The cron job
// runs on the wall clock; ctx bounds the sends it triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.Scan(ctx)

	s.cron = cron.New()
	spec := fmt.Sprintf("0 %d * * *", s.cfg.ScanHour)
	if _, err := s.cron.AddFunc(spec, func() { s.Scan(ctx) }); err != nil {
		return fmt.Errorf("schedule daily scan %q: %w", spec, err)
	}
	s.cron.Start()

	s.logger.Info("Reminder scheduler started",
		"scan_hour", s.cfg.ScanHour, "offset", s.cfg.Offset, "horizon", s.cfg.Horizon)
	return nil
}

// Stop halts the daily rescan and disarms all pending timers.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.logger.Info("Reminder scheduler stopped")
}

// Scan rebuilds the timer set from every league's calendar. All previously
// armed timers are disarmed first: postponed or rescheduled events get a
// fresh timer at their new start time, and vanished events get none. Events
// already in the sent registry are never re-armed.
func (s *Scheduler) Scan(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	armed := 0
	for _, adapter := range s.leagues.All() {
		events, err := adapter.ListAll(ctx)
		if err != nil {
			s.logger.Warn("Calendar scan failed", "league", adapter.ID(), "error", err)
			s.recordError("remind.scan", err, adapter.ID(), "")
			continue
		}
		for _, e := range events {
			if s.arm(ctx, adapter, e, now) {
				armed++
			}
		}
	}

	s.mu.Lock()
	s.stats.LastScanAt = now
	s.stats.Pending = len(s.pending)
	s.stats.TotalScans++
	s.mu.Unlock()

	s.logger.Info("Reminder scan complete", "armed", armed)
}

// arm decides whether e gets a timer and, if so, arms it. Returns true when
// a timer was armed.
func (s *Scheduler) arm(ctx context.Context, adapter league.Adapter, e league.Event, now time.Time) bool {
	if e.State != league.StateScheduled {
		return false
	}
	untilStart := e.StartTime.Sub(now)
	if untilStart <= 0 || untilStart > s.cfg.Horizon {
		return false
	}
	if s.sent.Contains(e.ID) {
		return false
	}

	notifyAt := e.StartTime.Add(-s.cfg.Offset)
	delay := notifyAt.Sub(now)
	if delay <= 0 {
		// Inside the offset window already: too late to remind usefully.
		s.logger.Debug("Reminder window already passed", "event", e.ID, "notify_at", notifyAt)
		return false
	}

	r := notify.Reminder{Event: e, Display: adapter.DisplayInfo(e)}
	timer := s.clock.AfterFunc(delay, func() { s.fire(ctx, r) })

	s.mu.Lock()
	s.pending[e.ID] = pending{timer: timer, notifyAt: notifyAt}
	s.mu.Unlock()

	s.logger.Debug("Reminder armed",
		"league", e.LeagueID, "event", e.ID, "notify_at", notifyAt)
	return true
}

// fire sends one reminder. The sent registry is rechecked here, not just at
// arm time: a concurrent scan or a manual trigger may have sent it already.
// Only a successful send is recorded, so a failed one is retried by the next
// scan if the event is still in the horizon.
func (s *Scheduler) fire(ctx context.Context, r notify.Reminder) {
	s.mu.Lock()
	delete(s.pending, r.Event.ID)
	s.mu.Unlock()

	if s.sent.Contains(r.Event.ID) {
		return
	}

	if err := s.sink.SendReminder(ctx, r); err != nil {
		s.logger.Warn("Reminder dispatch failed", "event", r.Event.ID, "error", err)
		s.recordError("remind.dispatch", err, r.Event.LeagueID, r.Event.ID)
		return
	}
	s.sent.Add(r.Event.ID)

	s.mu.Lock()
	s.stats.TotalSent++
	s.mu.Unlock()

	s.logger.Info("Reminder sent", "league", r.Event.LeagueID, "event", r.Event.ID)
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.pending)
	return st
}

// Pending returns the ids of events with an armed timer, for the API layer.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids
}

func (s *Scheduler) recordError(operation string, err error, leagueID, eventID string) {
	if s.activityLog == nil {
		return
	}
	ctxMap := map[string]string{"league": leagueID}
	if eventID != "" {
		ctxMap["event"] = eventID
	}
	s.activityLog.Record(operation, err, ctxMap)
}
