package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called.
// Timers fire synchronously inside Advance, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManual creates a Manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	f        func()
	ch       chan time.Time
	stopped  bool
	fired    bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the manual clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to run when the clock advances past d from now.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, deadline: m.now.Add(d), f: f}
	m.timers = append(m.timers, t)
	return t
}

// After returns a channel that receives the fire time once the clock
// advances past d from now. The channel is buffered so Advance never blocks.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time, 1)
	t := &manualTimer{clock: m, deadline: m.now.Add(d), ch: ch}
	m.timers = append(m.timers, t)
	return ch
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Callbacks run on the caller's goroutine without the clock lock held, so
// they may register new timers; timers they register within the advanced
// window fire in the same call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		if t.f != nil {
			t.f()
		}
		if t.ch != nil {
			t.ch <- t.deadline
		}
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// nextDue pops the earliest unfired timer with deadline <= target, advancing
// the clock to that deadline. Returns nil when none remain.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	for _, t := range m.timers {
		if t.fired || t.stopped {
			continue
		}
		if t.deadline.After(target) {
			return nil
		}
		t.fired = true
		if t.deadline.After(m.now) {
			m.now = t.deadline
		}
		return t
	}
	return nil
}

// PendingTimers returns the number of registered timers that have neither
// fired nor been stopped.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}
