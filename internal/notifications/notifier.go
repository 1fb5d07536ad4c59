// Package notifications publishes workflow audit events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"guildlink/internal/cache"
	"guildlink/internal/middleware"
	"guildlink/internal/models"

	"github.com/redis/go-redis/v9"
)

// Notifier provides helpers to publish audit events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAudit sends the event to the member channel and the broadcast topic.
func (n *Notifier) PublishAudit(ctx context.Context, event models.AuditEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := n.rdb.Pipeline()
	if event.VID != 0 {
		pipe.Publish(ctx, cache.AuditChannel(event.VID), payload)
	}
	pipe.Publish(ctx, cache.AuditBroadcastTopic, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// StartAuditSubscriber subscribes to the broadcast topic and calls onEvent for every decoded
// event until ctx is done.
func (n *Notifier) StartAuditSubscriber(ctx context.Context, onEvent func(models.AuditEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, cache.AuditBroadcastTopic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.AuditEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					middleware.Logger.Warn("dropping malformed audit payload", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in audit subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}
