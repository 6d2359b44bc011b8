package store

import (
	"log/slog"
	"sync"
)

// IDList is a capped, persisted set of id strings with insertion order.
// Used for the durable registries (sent reminders, seen games): Add flushes
// synchronously, so an abrupt stop loses at most the latest id. Persistence
// failures degrade to in-memory operation for that update.
type IDList struct {
	mu     sync.Mutex
	path   string // empty disables persistence
	max    int
	logger *slog.Logger
	ids    []string // oldest first
	set    map[string]struct{}
}

// LoadIDList loads the list from path, tolerating a missing file. Entries
// beyond max are dropped oldest-first.
func LoadIDList(path string, max int, logger *slog.Logger) *IDList {
	if logger == nil {
		logger = slog.Default()
	}
	l := &IDList{path: path, max: max, logger: logger, set: make(map[string]struct{})}
	if path != "" {
		if err := LoadJSON(path, &l.ids); err != nil {
			logger.Warn("Failed to load id list, starting empty", "path", path, "error", err)
			l.ids = nil
		}
	}
	if len(l.ids) > max {
		l.ids = l.ids[len(l.ids)-max:]
	}
	for _, id := range l.ids {
		l.set[id] = struct{}{}
	}
	return l
}

// Contains reports whether id was recorded.
func (l *IDList) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.set[id]
	return ok
}

// Add records an id and persists the list. Returns false if already present.
func (l *IDList) Add(id string) bool {
	l.mu.Lock()
	if _, ok := l.set[id]; ok {
		l.mu.Unlock()
		return false
	}
	l.set[id] = struct{}{}
	l.ids = append(l.ids, id)
	if len(l.ids) > l.max {
		for _, dropped := range l.ids[:len(l.ids)-l.max] {
			delete(l.set, dropped)
		}
		l.ids = l.ids[len(l.ids)-l.max:]
	}
	snapshot := make([]string, len(l.ids))
	copy(snapshot, l.ids)
	path := l.path
	l.mu.Unlock()

	if path == "" {
		return true
	}
	if err := SaveJSON(path, snapshot); err != nil {
		l.logger.Warn("Failed to persist id list", "path", path, "error", err)
	}
	return true
}

// Len returns the number of retained ids.
func (l *IDList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

// IDs returns a copy of the retained ids, oldest first.
func (l *IDList) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}
