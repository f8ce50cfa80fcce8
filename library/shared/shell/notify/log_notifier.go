package notify

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// LogMsgNotification is the message of every notification written by LogNotifier.
const LogMsgNotification = "notification"

// LogNotifier writes notifications to a contextual logger at info level. It never fails.
type LogNotifier struct {
	logger shell.ContextualLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger shell.ContextualLogger) LogNotifier {
	return LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n LogNotifier) Notify(ctx context.Context, notification shell.Notification) error {
	n.logger.InfoContext(ctx, LogMsgNotification,
		shell.LogAttrNotificationKind, string(notification.Kind),
		shell.LogAttrUserID, notification.UserID.String(),
		shell.LogAttrBookID, notification.BookID.String(),
		shell.LogAttrRequestID, notification.RequestID.String(),
		"message", notification.Message,
	)

	return nil
}

var _ shell.Notifier = LogNotifier{}
