// Package selection implements the drag-to-multiselect gesture state
// machine for the triage grid.
//
// The session is an explicit finite state machine over plain data: the
// host feeds it pointer events it has already classified (tap, long-press,
// drag move, release) and the session reports membership changes through
// callbacks. It has no dependency on any UI event loop, which keeps it
// unit-testable without a rendering surface.
//
// Not safe for concurrent use: all calls must come from the host's single
// UI thread.
package selection

import (
	"time"

	"phototriage/internal/asset"
	"phototriage/internal/feedback"
)

// Host-side gesture classification defaults. The grid widget arms
// selection after a press held this long that moved less than the jitter
// radius.
const (
	DefaultLongPressDuration = 500 * time.Millisecond
	DefaultJitterRadius      = 8.0
)

// State enumerates the gesture machine states.
type State int

const (
	// StateIdle: no selection mode; taps open the detail view.
	StateIdle State = iota
	// StateArmed: selection mode active, no touch currently down.
	StateArmed
	// StateDragging: a continuous touch is toggling membership.
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Intent is the membership operation a drag session applies to every
// newly visited cell.
type Intent int

const (
	IntentAdd Intent = iota
	IntentRemove
)

// dragSession is the ephemeral per-gesture record: the anchor cell, the
// derived intent, and the cells already toggled this gesture. It lives
// for one continuous touch.
type dragSession struct {
	anchor    asset.ID
	intent    Intent
	processed map[asset.ID]struct{}
}

// Callbacks are the events a session emits to its host. Nil fields are
// skipped.
type Callbacks struct {
	// SelectionChanged fires after any membership change.
	SelectionChanged func()
	// OpenDetail fires when a plain tap should open the detail view.
	OpenDetail func(id asset.ID)
	// ExitSelectionMode fires when the session leaves selection mode on
	// its own (set emptied, or released with nothing selected).
	ExitSelectionMode func()
	// Feedback fires once per discrete toggle.
	Feedback feedback.Func
}

// Session is the grid multi-select gesture state machine.
type Session struct {
	state        State
	geom         GridGeometry
	sequence     func() []asset.ID
	selected     map[asset.ID]struct{}
	drag         *dragSession
	explicitMode bool
	cb           Callbacks
}

// NewSession creates a session over the given geometry. sequence must
// return the currently filtered, ordered asset IDs; it is read fresh on
// every hit test because the sequence can change mid-gesture.
func NewSession(geom GridGeometry, sequence func() []asset.ID, cb Callbacks) *Session {
	return &Session{
		state:    StateIdle,
		geom:     geom,
		sequence: sequence,
		selected: make(map[asset.ID]struct{}),
		cb:       cb,
	}
}

// SetGeometry updates the grid geometry, e.g. after a window resize.
func (s *Session) SetGeometry(geom GridGeometry) {
	s.geom = geom
}

// State returns the current machine state.
func (s *Session) State() State { return s.state }

// InSelectionMode reports whether taps currently toggle membership.
func (s *Session) InSelectionMode() bool { return s.state != StateIdle }

// Count returns the number of selected assets.
func (s *Session) Count() int { return len(s.selected) }

// IsSelected reports membership of id.
func (s *Session) IsSelected(id asset.ID) bool {
	_, ok := s.selected[id]
	return ok
}

// Selected returns a copy of the selection set.
func (s *Session) Selected() []asset.ID {
	out := make([]asset.ID, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	return out
}

// Tap handles a completed plain tap. Outside selection mode it requests
// the detail view; inside, it toggles membership directly.
func (s *Session) Tap(pt Point) {
	id, ok := s.hit(pt)
	if !ok {
		return
	}

	if s.state == StateIdle {
		s.emitOpenDetail(id)
		return
	}

	// Selection mode: toggle without a drag.
	if s.IsSelected(id) {
		delete(s.selected, id)
		s.emitSelectionChanged()
		s.emitFeedback()
		if len(s.selected) == 0 && !s.explicitMode {
			s.leaveSelectionMode()
		}
		return
	}
	s.selected[id] = struct{}{}
	s.emitSelectionChanged()
	s.emitFeedback()
}

// LongPress handles a press held past the long-press threshold with
// movement under the jitter radius. From Idle it arms selection mode and
// starts an Add drag anchored on the pressed cell. While already armed it
// behaves like PressStart.
func (s *Session) LongPress(pt Point) {
	switch s.state {
	case StateDragging:
		return
	case StateArmed:
		s.PressStart(pt)
		return
	}

	id, ok := s.hit(pt)
	if !ok {
		return
	}

	s.emitFeedback()
	if !s.IsSelected(id) {
		s.selected[id] = struct{}{}
		s.emitSelectionChanged()
	}
	s.drag = &dragSession{
		anchor:    id,
		intent:    IntentAdd,
		processed: map[asset.ID]struct{}{id: {}},
	}
	s.state = StateDragging
}

// PressStart handles a new press while armed: intent is re-derived from
// the pressed cell's current membership (selected means the drag removes,
// unselected means it adds), the processed set resets, and dragging
// begins. A miss leaves the session armed.
func (s *Session) PressStart(pt Point) {
	if s.state != StateArmed {
		return
	}
	id, ok := s.hit(pt)
	if !ok {
		return
	}

	intent := IntentAdd
	if s.IsSelected(id) {
		intent = IntentRemove
	}
	s.drag = &dragSession{
		anchor:    id,
		intent:    intent,
		processed: make(map[asset.ID]struct{}),
	}
	s.state = StateDragging
	s.applyIntent(id)
}

// DragMove handles pointer movement during a drag. Each cell is toggled
// at most once per drag session, so revisits are no-ops and cannot
// oscillate. Misses and out-of-range indices are skipped silently; the
// sequence is re-read on every call, so a filter change mid-drag simply
// rebounds subsequent hit tests.
func (s *Session) DragMove(pt Point) {
	if s.state != StateDragging {
		return
	}
	id, ok := s.hit(pt)
	if !ok {
		return
	}
	s.applyIntent(id)
}

// Release ends the current drag. The session stays armed while anything
// remains selected (or explicit mode is on); otherwise it exits selection
// mode entirely.
func (s *Session) Release() {
	if s.state != StateDragging {
		return
	}
	s.drag = nil
	if len(s.selected) > 0 || s.explicitMode {
		s.state = StateArmed
		return
	}
	s.leaveSelectionMode()
}

// EnterSelectionMode turns on host-driven selection mode: taps toggle
// membership even while nothing is selected yet.
func (s *Session) EnterSelectionMode() {
	s.explicitMode = true
	if s.state == StateIdle {
		s.state = StateArmed
	}
}

// Cancel clears the selection set and any drag session and returns to
// Idle, regardless of current state. Host-initiated, so no
// ExitSelectionMode event is emitted.
func (s *Session) Cancel() {
	changed := len(s.selected) > 0
	s.selected = make(map[asset.ID]struct{})
	s.drag = nil
	s.explicitMode = false
	s.state = StateIdle
	if changed {
		s.emitSelectionChanged()
	}
}

// RemoveIDs drops the given assets from the selection set, used by the
// host to reconcile after an external deletion. Membership of assets not
// selected is ignored.
func (s *Session) RemoveIDs(ids []asset.ID) {
	changed := false
	for _, id := range ids {
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
			changed = true
		}
	}
	if changed {
		s.emitSelectionChanged()
	}
	if len(s.selected) == 0 && !s.explicitMode && s.state == StateArmed {
		s.leaveSelectionMode()
	}
}

// applyIntent applies the drag intent to id once per session.
func (s *Session) applyIntent(id asset.ID) {
	if s.drag == nil {
		return
	}
	if _, done := s.drag.processed[id]; done {
		return
	}
	s.drag.processed[id] = struct{}{}

	switch s.drag.intent {
	case IntentAdd:
		if s.IsSelected(id) {
			return
		}
		s.selected[id] = struct{}{}
	case IntentRemove:
		if !s.IsSelected(id) {
			return
		}
		delete(s.selected, id)
	}
	s.emitSelectionChanged()
	s.emitFeedback()
}

// hit maps a pointer coordinate to the asset currently at that cell. The
// sequence is read fresh so a concurrent filter change cannot toggle a
// stale index.
func (s *Session) hit(pt Point) (asset.ID, bool) {
	idx, ok := s.geom.IndexAt(pt)
	if !ok {
		return "", false
	}
	seq := s.sequence()
	if idx >= len(seq) {
		return "", false
	}
	return seq[idx], true
}

func (s *Session) leaveSelectionMode() {
	s.drag = nil
	s.state = StateIdle
	if s.cb.ExitSelectionMode != nil {
		s.cb.ExitSelectionMode()
	}
}

func (s *Session) emitSelectionChanged() {
	if s.cb.SelectionChanged != nil {
		s.cb.SelectionChanged()
	}
}

func (s *Session) emitOpenDetail(id asset.ID) {
	if s.cb.OpenDetail != nil {
		s.cb.OpenDetail(id)
	}
}

func (s *Session) emitFeedback() {
	if s.cb.Feedback != nil {
		s.cb.Feedback()
	}
}
