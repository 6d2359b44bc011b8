// Package activity keeps a bounded, newest-first log of operational events
// (failed sends, feed errors, degraded persistence). The log is persisted as
// a JSON array so it survives restarts; persistence failures degrade to
// in-memory only.
package activity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/store"
)

// Entry is a single operational event, newest entries first in the log.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"`
	Error     string            `json:"error"`
	Context   map[string]string `json:"context,omitempty"`
}

// Log is a bounded operational event log.
type Log struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  *slog.Logger
	path    string // empty disables persistence
	max     int
	entries []Entry // newest first
}

// New creates a Log capped to max entries, persisted at path. Existing
// entries are loaded so restarts keep recent history.
func New(clk clock.Clock, path string, max int, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Log{clock: clk, logger: logger, path: path, max: max}
	if path != "" {
		if err := store.LoadJSON(path, &l.entries); err != nil {
			logger.Warn("Failed to load activity log, starting empty", "path", path, "error", err)
			l.entries = nil
		}
		if len(l.entries) > max {
			l.entries = l.entries[:max]
		}
	}
	return l
}

// Record appends an operational event. ctx values are stored as-is; callers
// redact sensitive values (recipient tokens) before recording.
func (l *Log) Record(operation string, err error, ctx map[string]string) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	l.mu.Lock()
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.clock.Now(),
		Operation: operation,
		Error:     errMsg,
		Context:   ctx,
	}
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	snapshot := make([]Entry, len(l.entries))
	copy(snapshot, l.entries)
	l.mu.Unlock()

	if l.path == "" {
		return
	}
	if saveErr := store.SaveJSON(l.path, snapshot); saveErr != nil {
		// Best-effort durability: keep operating in memory.
		l.logger.Warn("Failed to persist activity log", "error", saveErr)
	}
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
