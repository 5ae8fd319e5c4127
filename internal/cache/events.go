// Package cache provides a Redis-backed read-through cache for event
// lookups. Entries are JSON-encoded and evicted on every event mutation,
// so a stale price or availability count is never served past the TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opentix/ledger/internal/domain"
)

type Events struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEvents(client *redis.Client, ttl time.Duration) *Events {
	return &Events{
		client: client,
		ttl:    ttl,
	}
}

func (c *Events) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	payload, err := c.client.Get(ctx, key(eventID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Events) Set(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(event.ID), payload, c.ttl).Err()
}

func (c *Events) Delete(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, key(eventID)).Err()
}

func key(eventID string) string {
	return "event:" + eventID
}
