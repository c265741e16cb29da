// Package filmstrip keeps a single authoritative current index consistent
// between the continuous scroll position the user controls and index
// changes requested programmatically by the host.
//
// Two flags carry the whole discipline: scroll updates are ignored
// entirely while a code-triggered animation is in flight (so the
// synchronizer never reacts to its own corrective snap), and a settle
// timer detects when user motion has stopped so the strip can be snapped
// back to center.
//
// The synchronizer is not goroutine-safe. All calls must come from the
// host's UI thread; timer callbacks are marshalled back onto that thread
// through the Execute hook.
package filmstrip

import (
	"time"

	"phototriage/internal/feedback"
)

// Defaults for settle detection and the corrective snap animation.
const (
	DefaultSettleDelay  = 200 * time.Millisecond
	DefaultSnapDuration = 250 * time.Millisecond
)

// Scroller is the sink for corrective and host-requested scroll motion.
type Scroller interface {
	// ScrollTo moves the strip to offset; animated motion takes the
	// configured snap duration.
	ScrollTo(offset float32, animated bool)
}

// Options configures a Synchronizer. Zero values take defaults.
type Options struct {
	SettleDelay  time.Duration
	SnapDuration time.Duration

	// Clock supplies timers; nil means the wall clock.
	Clock Clock

	// Execute marshals timer callbacks onto the UI thread. Nil means
	// direct invocation, which is only correct in single-threaded tests.
	Execute func(func())

	// OnIndexChanged fires whenever a user-driven scroll resolves to a
	// new index. Host-requested jumps do not fire it.
	OnIndexChanged func(int)

	// Feedback fires once per discrete index change.
	Feedback feedback.Func
}

// Synchronizer reconciles scroll offsets with a discrete current index.
type Synchronizer struct {
	geom     Geometry
	count    func() int
	scroller Scroller

	settleDelay  time.Duration
	snapDuration time.Duration
	clock        Clock
	execute      func(func())
	onChanged    func(int)
	feedback     feedback.Func

	index         int
	userScrolling bool
	programmatic  bool

	settleTimer   Timer
	inFlightTimer Timer
}

// NewSynchronizer creates a synchronizer over the given geometry. count
// must return the current sequence length; it is read fresh on every
// update because the filtered sequence can change between reads.
func NewSynchronizer(geom Geometry, count func() int, scroller Scroller, opts Options) *Synchronizer {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.SnapDuration <= 0 {
		opts.SnapDuration = DefaultSnapDuration
	}
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Execute == nil {
		opts.Execute = func(f func()) { f() }
	}

	return &Synchronizer{
		geom:         geom,
		count:        count,
		scroller:     scroller,
		settleDelay:  opts.SettleDelay,
		snapDuration: opts.SnapDuration,
		clock:        opts.Clock,
		execute:      opts.Execute,
		onChanged:    opts.OnIndexChanged,
		feedback:     opts.Feedback,
	}
}

// Index returns the current authoritative index.
func (s *Synchronizer) Index() int { return s.index }

// ProgrammaticInFlight reports whether a code-triggered animation is
// currently suppressing scroll updates.
func (s *Synchronizer) ProgrammaticInFlight() bool { return s.programmatic }

// SetGeometry updates the strip geometry, e.g. after a window resize.
func (s *Synchronizer) SetGeometry(geom Geometry) { s.geom = geom }

// OnScroll processes a raw scroll-position update. Updates arriving while
// a programmatic animation is in flight are dropped wholesale; this is
// the device that prevents the synchronizer from oscillating against its
// own corrective motion.
func (s *Synchronizer) OnScroll(offset float32) {
	if s.programmatic {
		return
	}
	n := s.count()
	if n == 0 {
		return
	}

	s.userScrolling = true

	idx := s.geom.IndexForOffset(offset, n)
	if idx != s.index {
		s.index = idx
		if s.onChanged != nil {
			s.onChanged(idx)
		}
		if s.feedback != nil {
			s.feedback()
		}
	}

	s.armSettle()
}

// TouchDown handles a new touch starting, possibly during an in-flight
// programmatic animation. The pending settle timer is cancelled and
// control cedes to the user; the in-flight flag from the interrupted
// animation clears naturally without re-triggering a snap, because the
// new touch will produce its own updates and its own settle cycle.
func (s *Synchronizer) TouchDown() {
	s.cancelSettle()
	s.userScrolling = true
}

// SetIndex actions a host-requested jump to index k. A request equal to
// the current index is a no-op. The jump uses the same in-flight
// discipline as the settle-triggered snap, so host jumps and user settles
// can never animate simultaneously.
func (s *Synchronizer) SetIndex(k int) {
	n := s.count()
	if n == 0 {
		return
	}
	if k < 0 {
		k = 0
	}
	if k >= n {
		k = n - 1
	}
	if k == s.index {
		return
	}

	s.cancelSettle()
	s.userScrolling = false
	s.index = k
	s.beginProgrammatic(s.geom.OffsetForIndex(k))
}

// settle fires when scroll input has been quiet for the settle delay: the
// user episode ends and a corrective snap re-centers the current index.
func (s *Synchronizer) settle() {
	if !s.userScrolling {
		return
	}
	s.userScrolling = false
	s.beginProgrammatic(s.geom.OffsetForIndex(s.index))
}

// beginProgrammatic starts an animated scroll with the in-flight flag
// held for the animation's known duration.
func (s *Synchronizer) beginProgrammatic(offset float32) {
	s.programmatic = true
	s.scroller.ScrollTo(offset, true)

	if s.inFlightTimer != nil {
		s.inFlightTimer.Stop()
	}
	s.inFlightTimer = s.clock.AfterFunc(s.snapDuration, func() {
		s.execute(func() {
			s.programmatic = false
		})
	})
}

func (s *Synchronizer) armSettle() {
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleTimer = s.clock.AfterFunc(s.settleDelay, func() {
		s.execute(s.settle)
	})
}

func (s *Synchronizer) cancelSettle() {
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
}
