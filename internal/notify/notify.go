// Package notify carries user-visible, fire-and-forget messages such as
// failure toasts. Senders never block on delivery.
package notify

import (
	"io"
	"log/slog"
	"time"
)

// DefaultDuration is how long a toast stays visible unless configured.
const DefaultDuration = 3000 * time.Millisecond

// Notification is one toast request. Action is the optional button label;
// empty means none.
type Notification struct {
	Message  string
	Action   string
	Duration time.Duration
}

// Notifier accepts notifications without blocking.
type Notifier interface {
	Notify(message, action string, duration time.Duration)
}

// Log writes notifications to a slog logger at warn level.
type Log struct {
	log *slog.Logger
}

// NewLog returns a Notifier backed by l. A nil logger discards.
func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{log: l}
}

func (n *Log) Notify(message, action string, duration time.Duration) {
	n.log.Warn(message, "action", action, "duration", duration)
}

// Queue buffers notifications for a consumer such as the TUI. When the
// buffer is full new notifications are dropped.
type Queue struct {
	ch chan Notification
}

// NewQueue returns a queue holding up to size pending notifications.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Notification, size)}
}

func (q *Queue) Notify(message, action string, duration time.Duration) {
	select {
	case q.ch <- Notification{Message: message, Action: action, Duration: duration}:
	default:
	}
}

// C returns the pending notifications.
func (q *Queue) C() <-chan Notification {
	return q.ch
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(message, action string, duration time.Duration) {
	for _, n := range m {
		n.Notify(message, action, duration)
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(string, string, time.Duration) {}
