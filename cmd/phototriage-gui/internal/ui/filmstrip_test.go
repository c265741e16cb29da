package ui

import (
	"testing"
	"time"

	"gioui.org/unit"

	"phototriage/internal/filmstrip"
)

// fakeClock delivers AfterFunc callbacks when the test advances time.
type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) filmstrip.Timer {
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	target := c.now + d
	// Fire due timers in order, stepping now to each timer's due time so
	// callbacks schedule follow-up timers relative to when they logically ran.
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.at > c.now {
			c.now = next.at
		}
		next.fired = true
		next.f()
	}
	c.now = target
}

// countingScroller records corrective scrolls requested by the
// synchronizer.
type countingScroller struct {
	offsets []float32
}

func (s *countingScroller) ScrollTo(offset float32, animated bool) {
	s.offsets = append(s.offsets, offset)
}

func newTestStrip(n int) (*FilmstripView, *fakeClock, *countingScroller) {
	view := NewFilmstripView(nil, nil, nil, unit.Dp(80), unit.Dp(8))
	clock := &fakeClock{}
	scroller := &countingScroller{}
	sync := filmstrip.NewSynchronizer(filmstrip.Geometry{
		ItemWidth:     80,
		ItemSpacing:   20,
		ViewportWidth: 400,
	}, func() int { return n }, scroller, filmstrip.Options{
		Clock: clock,
	})
	view.WireSynchronizer(sync)
	return view, clock, scroller
}

// An idle strip rendering the same position every frame must settle at
// most once: a frame produced by the snap's own timer re-reports an
// unchanged offset, and that must not re-arm the settle cycle.
func TestIdleFramesDoNotRetriggerSnap(t *testing.T) {
	view, clock, scroller := newTestStrip(10)

	// One real user scroll, then the frame loop keeps rendering: each
	// frame reports the strip's current position, which after a snap is
	// the snapped offset.
	view.reportScroll(130)
	for i := 0; i < 20; i++ {
		clock.Advance(100 * time.Millisecond)
		offset := float32(130)
		if n := len(scroller.offsets); n > 0 {
			offset = scroller.offsets[n-1]
		}
		view.reportScroll(offset)
	}

	if len(scroller.offsets) != 1 {
		t.Fatalf("idle strip performed %d corrective snaps, want 1", len(scroller.offsets))
	}
}

func TestChangedOffsetIsReported(t *testing.T) {
	view, clock, scroller := newTestStrip(10)

	view.reportScroll(130)
	clock.Advance(500 * time.Millisecond)
	if view.sync.Index() != 1 {
		t.Fatalf("index = %d after scroll to 130, want 1", view.sync.Index())
	}

	// New motion after the snap window still gets through.
	view.reportScroll(430)
	if view.sync.Index() != 4 {
		t.Fatalf("index = %d after scroll to 430, want 4", view.sync.Index())
	}
	clock.Advance(500 * time.Millisecond)
	if len(scroller.offsets) != 2 {
		t.Fatalf("got %d corrective snaps, want 2", len(scroller.offsets))
	}
}
