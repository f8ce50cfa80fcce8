package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

const (
	defaultChannel   = "circulation:notifications"
	defaultInboxSize = 50
	defaultInboxTTL  = 30 * 24 * time.Hour
	inboxKeyTemplate = "%s:inbox:%s"
)

// RedisPublisher publishes notifications through Redis.
type RedisPublisher struct {
	rdb redis.Cmdable

	channel   string
	inboxSize int64
	inboxTTL  time.Duration
}

// RedisOption configures a RedisPublisher.
type RedisOption func(*RedisPublisher)

// WithChannel sets the Pub/Sub channel. Inbox keys are prefixed with it.
func WithChannel(channel string) RedisOption {
	return func(p *RedisPublisher) {
		p.channel = strings.Trim(channel, ":")
	}
}

// WithInbox sets how many notifications per user are kept and for how long. A size of 0 disables the inbox.
func WithInbox(size int, ttl time.Duration) RedisOption {
	return func(p *RedisPublisher) {
		p.inboxSize = int64(size)
		p.inboxTTL = ttl
	}
}

// NewRedisPublisher creates a publisher on the given client.
func NewRedisPublisher(rdb redis.Cmdable, opts ...RedisOption) *RedisPublisher {
	p := &RedisPublisher{
		rdb:       rdb,
		channel:   defaultChannel,
		inboxSize: defaultInboxSize,
		inboxTTL:  defaultInboxTTL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Notify publishes the notification and appends it to the recipient's inbox in one pipeline.
func (p *RedisPublisher) Notify(ctx context.Context, notification shell.Notification) error {
	payload, err := Encode(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, p.channel, payload)

	if p.inboxSize > 0 {
		key := p.InboxKey(notification.UserID.String())
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, p.inboxSize-1)

		if p.inboxTTL > 0 {
			pipe.Expire(ctx, key, p.inboxTTL)
		}
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// InboxKey returns the Redis list holding the latest notifications of a user, newest first.
func (p *RedisPublisher) InboxKey(userID string) string {
	return fmt.Sprintf(inboxKeyTemplate, p.channel, userID)
}

// Inbox reads up to limit notifications of a user, newest first.
func (p *RedisPublisher) Inbox(ctx context.Context, userID string, limit int) ([]shell.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	payloads, err := p.rdb.LRange(ctx, p.InboxKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	notifications := make([]shell.Notification, 0, len(payloads))
	for _, payload := range payloads {
		notification, decodeErr := Decode([]byte(payload))
		if decodeErr != nil {
			continue
		}

		notifications = append(notifications, notification)
	}

	return notifications, nil
}

var _ shell.Notifier = (*RedisPublisher)(nil)
