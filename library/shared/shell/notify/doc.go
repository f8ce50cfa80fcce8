// Package notify implements shell.Notifier for the circulation service.
//
// RedisPublisher publishes every notification on a Pub/Sub channel and keeps a short
// per-user inbox list, so that clients that were offline can catch up. LogNotifier
// writes notifications to the structured log and is used when Redis is not configured.
package notify
