package fixtures

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// NotifierSpy records notifications and can be told to fail.
type NotifierSpy struct {
	mu   sync.Mutex
	sent []shell.Notification
	err  error
}

// NewNotifierSpy creates a spy that fails every call with err if err is not nil.
func NewNotifierSpy(err error) *NotifierSpy {
	return &NotifierSpy{err: err}
}

// Notify implements shell.Notifier.
func (n *NotifierSpy) Notify(_ context.Context, notification shell.Notification) error {
	if n.err != nil {
		return n.err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification)

	return nil
}

// Sent returns a copy of the delivered notifications.
func (n *NotifierSpy) Sent() []shell.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]shell.Notification(nil), n.sent...)
}

// SentOfKind returns the delivered notifications of one kind.
func (n *NotifierSpy) SentOfKind(kind shell.NotificationKind) []shell.Notification {
	matching := make([]shell.Notification, 0)

	for _, notification := range n.Sent() {
		if notification.Kind == kind {
			matching = append(matching, notification)
		}
	}

	return matching
}
