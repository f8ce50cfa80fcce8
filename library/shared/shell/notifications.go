package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/core"
)

// NotificationKind identifies what happened to the recipient's request or loan.
type NotificationKind string

// Notification kinds.
const (
	NotificationRequestApproved      NotificationKind = "request_approved"
	NotificationQueuePositionChanged NotificationKind = "queue_position_changed"
	NotificationRequestRejected      NotificationKind = "request_rejected"
	NotificationRequestExpired       NotificationKind = "request_expired"
	NotificationLoanRenewed          NotificationKind = "loan_renewed"
)

// Notification is one message for one user.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	UserID    uuid.UUID        `json:"userId"`
	BookID    uuid.UUID        `json:"bookId"`
	RequestID uuid.UUID        `json:"requestId"`
	Position  int              `json:"position,omitempty"`
	Message   string           `json:"message"`
	At        time.Time        `json:"at"`
}

// Notifications is collected inside a transaction and dispatched after commit.
type Notifications []Notification

// Notifier delivers notifications. Implementations live outside the core (redis, logs, email gateways).
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// RequestApproved tells a reader that copies are reserved for pickup.
func RequestApproved(userID, requestID, bookID uuid.UUID, at time.Time) Notification {
	return Notification{
		Kind:      NotificationRequestApproved,
		UserID:    userID,
		BookID:    bookID,
		RequestID: requestID,
		Message:   "your borrow request was approved and is ready for pickup",
		At:        at,
	}
}

// RequestRejected tells a reader that a librarian rejected the request.
func RequestRejected(userID, requestID, bookID uuid.UUID, at time.Time) Notification {
	return Notification{
		Kind:      NotificationRequestRejected,
		UserID:    userID,
		BookID:    bookID,
		RequestID: requestID,
		Message:   "your borrow request was rejected",
		At:        at,
	}
}

// RequestExpired tells a reader that an approved request was not collected in time.
func RequestExpired(userID, requestID, bookID uuid.UUID, at time.Time) Notification {
	return Notification{
		Kind:      NotificationRequestExpired,
		UserID:    userID,
		BookID:    bookID,
		RequestID: requestID,
		Message:   "your approved borrow request expired because it was not picked up",
		At:        at,
	}
}

// LoanRenewed confirms a renewal with the new due date.
func LoanRenewed(userID uuid.UUID, newReturnDate time.Time, at time.Time) Notification {
	return Notification{
		Kind:    NotificationLoanRenewed,
		UserID:  userID,
		Message: fmt.Sprintf("your loan was renewed until %s", newReturnDate.Format(time.DateOnly)),
		At:      at,
	}
}

// PositionsChanged tells every moved reader their new queue position.
func PositionsChanged(bookID uuid.UUID, changes []core.PositionChange, at time.Time) Notifications {
	notifications := make(Notifications, 0, len(changes))

	for _, change := range changes {
		notifications = append(notifications, Notification{
			Kind:      NotificationQueuePositionChanged,
			UserID:    change.Entry.UserID,
			BookID:    bookID,
			RequestID: change.Entry.RequestID,
			Position:  change.NewPosition,
			Message:   fmt.Sprintf("your position in the queue changed from %d to %d", change.OldPosition, change.NewPosition),
			At:        at,
		})
	}

	return notifications
}

// NotificationDispatcher sends notifications after a transaction committed.
// Dispatch failures are logged and counted, never returned: the state change already happened.
type NotificationDispatcher struct {
	notifier         Notifier
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
}

// DispatcherOption configures a NotificationDispatcher.
type DispatcherOption func(*NotificationDispatcher)

// WithDispatchLogger sets the logger for dispatch failures.
func WithDispatchLogger(logger Logger) DispatcherOption {
	return func(d *NotificationDispatcher) {
		d.logger = logger
	}
}

// WithDispatchContextualLogger sets the context-aware logger for dispatch failures.
func WithDispatchContextualLogger(logger ContextualLogger) DispatcherOption {
	return func(d *NotificationDispatcher) {
		d.contextualLogger = logger
	}
}

// WithDispatchMetrics sets the metrics collector for counting dispatch failures.
func WithDispatchMetrics(collector MetricsCollector) DispatcherOption {
	return func(d *NotificationDispatcher) {
		d.metricsCollector = collector
	}
}

// NewNotificationDispatcher creates a dispatcher. A nil notifier makes Dispatch a no-op.
func NewNotificationDispatcher(notifier Notifier, opts ...DispatcherOption) NotificationDispatcher {
	dispatcher := NotificationDispatcher{notifier: notifier}

	for _, opt := range opts {
		opt(&dispatcher)
	}

	return dispatcher
}

// Dispatch sends every notification in order and returns how many failed.
func (d NotificationDispatcher) Dispatch(ctx context.Context, notifications Notifications) int {
	if d.notifier == nil {
		return 0
	}

	failed := 0

	for _, notification := range notifications {
		if err := d.notifier.Notify(ctx, notification); err != nil {
			failed++

			logWarn(ctx, d.logger, d.contextualLogger, LogMsgNotificationFailed,
				LogAttrNotificationKind, string(notification.Kind),
				LogAttrUserID, notification.UserID.String(),
				LogAttrError, err.Error(),
			)

			IncrementCounter(ctx, d.metricsCollector, NotificationsFailedMetric, map[string]string{
				LogAttrNotificationKind: string(notification.Kind),
			})
		}
	}

	return failed
}
