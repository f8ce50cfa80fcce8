package notify

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

// Encode renders a notification as the JSON payload published to subscribers.
func Encode(notification shell.Notification) ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(notification)
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (shell.Notification, error) {
	var notification shell.Notification
	if err := jsoniter.ConfigFastest.Unmarshal(payload, &notification); err != nil {
		return shell.Notification{}, err
	}

	return notification, nil
}
