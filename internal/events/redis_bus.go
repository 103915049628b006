package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"gear_rental_backend/pkg/utils"
)

// channelPrefix namespaces bus channels on shared Redis instances.
const channelPrefix = "gear_rental:"

// RedisBus fans events out across service instances over Redis pub/sub, so a
// booking committed on one instance refreshes snapshots everywhere. Local
// subscribers receive remote publishes through the Redis loopback.
type RedisBus struct {
	client redis.UniversalClient
}

// NewRedisBus wraps an existing Redis client.
func NewRedisBus(client redis.UniversalClient) *RedisBus {
	return &RedisBus{client: client}
}

// Publish JSON-encodes the event onto the topic's channel.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+string(ev.Topic), payload).Err()
}

// Subscribe consumes the topic's channel in a background goroutine until the
// returned unsubscribe is called. Undecodable payloads are logged and
// skipped rather than tearing down the subscription.
func (b *RedisBus) Subscribe(topic Topic, h Handler) func() {
	sub := b.client.Subscribe(context.Background(), channelPrefix+string(topic))

	go func() {
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				utils.LogError(err, "RedisBus: dropping undecodable event payload")
				continue
			}
			h(ev)
		}
	}()

	return func() {
		_ = sub.Close()
	}
}
