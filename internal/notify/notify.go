// Package notify sends desktop notifications over D-Bus for the
// outcomes of bulk triage operations. When no session bus is available
// (headless use, non-Linux desktops without a bus) the notifier
// degrades to logging only.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyInterface = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyMethod    = "org.freedesktop.Notifications.Notify"
)

// Notifier sends desktop notifications.
type Notifier struct {
	appName string
	log     *slog.Logger

	mu   sync.Mutex
	conn *dbus.Conn
	// lastID lets follow-up notifications replace the previous one
	// instead of stacking.
	lastID uint32
}

// New creates a notifier. The session bus is connected lazily on the
// first Send, so construction never fails.
func New(appName string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		appName: appName,
		log:     log.With("component", "notify"),
	}
}

// Send shows a desktop notification with the given summary and body.
// Failures are logged, never fatal: a missing notification must not
// interrupt a triage session.
func (n *Notifier) Send(summary, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	conn, err := n.connLocked()
	if err != nil {
		n.log.Debug("notification skipped", "summary", summary, "err", err)
		return
	}

	obj := conn.Object(notifyInterface, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyMethod, 0,
		n.appName,                 // app_name
		n.lastID,                  // replaces_id
		"",                        // app_icon
		summary,                   // summary
		body,                      // body
		[]string{},                // actions
		map[string]dbus.Variant{}, // hints
		int32(-1),                 // expire_timeout: server default
	)
	if call.Err != nil {
		n.log.Warn("send notification", "summary", summary, "err", call.Err)
		// Drop the connection so the next Send reconnects.
		n.conn.Close()
		n.conn = nil
		return
	}

	if err := call.Store(&n.lastID); err != nil {
		n.log.Warn("read notification id", "err", err)
	}
}

// Sendf formats and sends a notification body.
func (n *Notifier) Sendf(summary, format string, args ...any) {
	n.Send(summary, fmt.Sprintf(format, args...))
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

func (n *Notifier) connLocked() (*dbus.Conn, error) {
	if n.conn != nil {
		return n.conn, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	n.conn = conn
	return conn, nil
}
