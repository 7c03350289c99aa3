// AngelaMos | 2026
// relay.go

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ltl-studio/backend/internal/core"
)

var ErrRelayNotSubscribed = errors.New("chat relay not subscribed")

// RedisRelay publishes events on a Redis channel and feeds whatever
// arrives on it into the local hub, so every instance behind a load
// balancer delivers to its own sockets.
type RedisRelay struct {
	redis   *core.Redis
	channel string
	hub     *Hub
	logger  *slog.Logger
	ready   chan struct{}
}

func NewRedisRelay(
	rdb *core.Redis,
	channel string,
	hub *Hub,
	logger *slog.Logger,
) *RedisRelay {
	return &RedisRelay{
		redis:   rdb,
		channel: channel,
		hub:     hub,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return r.redis.Publish(ctx, r.channel, payload)
}

// Ready is closed once the channel subscription is confirmed.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Ping fails until Run has subscribed, and afterwards whenever Redis no
// longer lists a subscriber on the relay channel.
func (r *RedisRelay) Ping(ctx context.Context) error {
	select {
	case <-r.ready:
	default:
		return ErrRelayNotSubscribed
	}

	n, err := r.redis.ChannelSubscribers(ctx, r.channel)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: no subscribers on %s", ErrRelayNotSubscribed, r.channel)
	}
	return nil
}

// Run consumes the channel until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub, err := r.redis.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			r.logger.Warn("close chat relay subscription", "error", err)
		}
	}()
	close(r.ready)

	r.logger.Info("chat relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("discarding malformed chat event", "error", err)
				continue
			}

			if err := r.hub.Publish(ctx, ev); err != nil {
				r.logger.Warn("chat relay delivery failed", "error", err)
			}
		}
	}
}
