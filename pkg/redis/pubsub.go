package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventsChannel carries analytics events between API instances
const EventsChannel = "tradejournal:events"

// Publish sends a JSON-encoded message on a channel (no-op when disabled)
func (c *Client) Publish(ctx context.Context, channel string, v interface{}) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("publish marshal failed: %w", err)
	}
	if err := c.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Subscribe delivers raw payloads until ctx is cancelled.
// Returns a closed channel immediately when Redis is disabled.
func (c *Client) Subscribe(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte, 64)
	if !c.enabled {
		close(out)
		return out
	}

	sub := c.rdb.Subscribe(ctx, channel)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
