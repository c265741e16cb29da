package filmstrip

import "time"

// Timer is a single-shot, cancellable timer. Stop reports whether the
// timer was cancelled before firing.
type Timer interface {
	Stop() bool
}

// Clock schedules single-shot timers. The synchronizer never needs
// repeating timers; every timer is rearmed per gesture episode.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// realClock delegates to the runtime timer.
type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }
