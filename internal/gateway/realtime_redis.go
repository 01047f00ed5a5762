// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/billowria/teampulse/internal/platform/constants"
)

// RedisRealtime implements [Realtime] over Redis pub/sub.
//
// # Channel Taxonomy
//
// One channel per table/event pair: "realtime:{table}:{event}". Every API
// instance publishes to and subscribes on the same channels, so change
// events fan out across the whole deployment, not just the emitting process.
//
// # Delivery Semantics
//
// Redis pub/sub is at-most-once with no replay. That is sufficient here:
// subscribers react by running a full refetch against the table store, so a
// dropped event costs freshness, never correctness.
type RedisRealtime struct {
	client *redis.Client
	logger *slog.Logger

	// mu guards the subscriber registry.
	mu sync.Mutex
	// subscriptions maps channel name to its local fan-out state.
	subscriptions map[string]*channelSubscription
	// nextID hands out registration tokens for unsubscribe.
	nextID int
}

// channelSubscription is the local fan-out for one Redis channel.
type channelSubscription struct {
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	callbacks map[int]func(Row)
}

// NewRedisRealtime constructs a Redis backed realtime bus.
func NewRedisRealtime(client *redis.Client, logger *slog.Logger) *RedisRealtime {
	return &RedisRealtime{
		client:        client,
		logger:        logger,
		subscriptions: make(map[string]*channelSubscription),
	}
}

// channelName renders the pub/sub channel for a table/event pair.
func channelName(table string, event Event) string {
	return fmt.Sprintf("%s:%s:%s", constants.RealtimeChannelPrefix, table, string(event))
}

/*
Publish emits a change event to every subscriber of the table/event pair.

Parameters:
  - ctx: context.Context
  - table: string
  - event: Event
  - payload: Row (serialized as JSON on the wire)

Returns:
  - error: Serialization or transport failures
*/
func (bus *RedisRealtime) Publish(ctx context.Context, table string, event Event, payload Row) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime_publish_encode_failed: %w", err)
	}

	if err := bus.client.Publish(ctx, channelName(table, event), encoded).Err(); err != nil {
		return fmt.Errorf("realtime_publish_failed: %w", err)
	}

	return nil
}

/*
Subscribe registers a callback for change events on one table/event pair.

Description: The first subscriber of a channel opens the underlying Redis
subscription and starts a receive loop; later subscribers share it. The
returned function removes the callback and tears down the Redis subscription
once the last local subscriber leaves.

Parameters:
  - table: string
  - event: Event
  - fn: func(Row) — invoked from the receive goroutine

Returns:
  - unsubscribe: func()
  - error: Transport failures opening the subscription
*/
func (bus *RedisRealtime) Subscribe(table string, event Event, fn func(payload Row)) (func(), error) {
	channel := channelName(table, event)

	bus.mu.Lock()
	defer bus.mu.Unlock()

	sub, exists := bus.subscriptions[channel]
	if !exists {
		receiveCtx, cancel := context.WithCancel(context.Background())
		pubsub := bus.client.Subscribe(receiveCtx, channel)

		sub = &channelSubscription{
			pubsub:    pubsub,
			cancel:    cancel,
			callbacks: make(map[int]func(Row)),
		}
		bus.subscriptions[channel] = sub

		go bus.receiveLoop(receiveCtx, channel, pubsub)
	}

	bus.nextID++
	id := bus.nextID
	sub.callbacks[id] = fn

	unsubscribe := func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()

		current, ok := bus.subscriptions[channel]
		if !ok {
			return
		}

		delete(current.callbacks, id)

		// Last local subscriber gone: close the Redis-side subscription.
		if len(current.callbacks) == 0 {
			current.cancel()
			_ = current.pubsub.Close()
			delete(bus.subscriptions, channel)
		}
	}

	return unsubscribe, nil
}

// receiveLoop decodes wire messages and fans them out to local callbacks.
func (bus *RedisRealtime) receiveLoop(ctx context.Context, channel string, pubsub *redis.PubSub) {
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case message, open := <-messages:
			if !open {
				return
			}

			var payload Row
			if err := json.Unmarshal([]byte(message.Payload), &payload); err != nil {
				bus.logger.Warn("realtime_payload_decode_failed",
					slog.String("channel", channel),
					slog.Any("error", err),
				)
				continue
			}

			bus.mu.Lock()
			sub, ok := bus.subscriptions[channel]
			var callbacks []func(Row)
			if ok {
				callbacks = make([]func(Row), 0, len(sub.callbacks))
				for _, fn := range sub.callbacks {
					callbacks = append(callbacks, fn)
				}
			}
			bus.mu.Unlock()

			// Invoke outside the lock so a callback can unsubscribe itself.
			for _, fn := range callbacks {
				fn(payload)
			}
		}
	}
}
