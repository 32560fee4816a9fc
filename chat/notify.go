package chat

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// messagesChannel carries table-change events for the messages table.
// Events are signals only, never deltas; subscribers re-query.
const messagesChannel = "tnp:messages:changed"

// Notifier is the change-notification channel for chat. Publish is
// called after every message insert or read-flag update; Wait blocks
// until a change event arrives or ctx is done.
type Notifier interface {
	Publish(ctx context.Context, event string) error
	Wait(ctx context.Context) (string, error)
}

// RedisNotifier broadcasts change events over redis pub/sub.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, event string) error {
	return n.rdb.Publish(ctx, messagesChannel, event).Err()
}

func (n *RedisNotifier) Wait(ctx context.Context) (string, error) {
	sub := n.rdb.Subscribe(ctx, messagesChannel)
	defer sub.Close()
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		return "", err
	}
	return msg.Payload, nil
}

// NoopNotifier drops events. Used by tests and redis-less deployments,
// where clients fall back to plain polling.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, string) error { return nil }

func (NoopNotifier) Wait(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
