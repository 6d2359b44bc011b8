package watch

import (
	"sync"
)

// SeenRegistry maps event ids to the set of goal fingerprints already
// notified. In-memory only: a restart clears it, which re-triggers back-fill
// suppression instead of duplicate notifications. No eviction — the set of
// concurrently live events is bounded by league size.
type SeenRegistry struct {
	mu     sync.Mutex
	events map[string]map[string]struct{}
}

// NewSeenRegistry creates an empty registry.
func NewSeenRegistry() *SeenRegistry {
	return &SeenRegistry{events: make(map[string]map[string]struct{})}
}

// Known reports whether the event is already tracked.
func (r *SeenRegistry) Known(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[eventID]
	return ok
}

// Backfill starts tracking an event with all currently present fingerprints
// marked seen, so goals that occurred before tracking began never notify.
func (r *SeenRegistry) Backfill(eventID string, fingerprints []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		set[fp] = struct{}{}
	}
	r.events[eventID] = set
}

// MarkSeen records a fingerprint. Returns true if it was not seen before.
func (r *SeenRegistry) MarkSeen(eventID, fingerprint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.events[eventID]
	if !ok {
		set = make(map[string]struct{})
		r.events[eventID] = set
	}
	if _, seen := set[fingerprint]; seen {
		return false
	}
	set[fingerprint] = struct{}{}
	return true
}

// Count returns the number of fingerprints recorded for an event.
func (r *SeenRegistry) Count(eventID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[eventID])
}

// TrackedEvents returns how many events the registry currently tracks.
func (r *SeenRegistry) TrackedEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
