// Package feedback abstracts the discrete haptic/sound tick emitted when
// a selection or index change happens. The actual device is platform glue
// owned by the host; the engine only needs something to call.
package feedback

// Func is invoked once per discrete feedback event. Implementations must
// be cheap and non-blocking; they run on the UI thread.
type Func func()

// Noop discards feedback events.
func Noop() {}
