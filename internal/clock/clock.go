// Package clock abstracts wall-clock time and timer scheduling so that
// delay and window logic can be tested without real waits.
package clock

import "time"

// Timer is a single-fire timer handle.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired.
	Stop() bool
}

// Clock provides the current time, single-fire timers, and delay channels.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	After(d time.Duration) <-chan time.Time
}

// --------------------------------------------------------------------------
// System clock
// --------------------------------------------------------------------------

type systemClock struct{}

// System returns a Clock backed by the real time package.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
