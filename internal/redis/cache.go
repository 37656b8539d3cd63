package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - unread:{user_id} - recomputed unread-by-counterparty map, short TTL

// CounterCache mirrors recomputed unread counts. It is only ever a cache:
// the unread message rows stay the source of truth, and every relevant
// write invalidates the key.
type CounterCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCounterCache(client *goredis.Client, ttl time.Duration) *CounterCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CounterCache{client: client, ttl: ttl}
}

func unreadKey(userID uuid.UUID) string {
	return fmt.Sprintf("unread:%s", userID.String())
}

// SetCounts stores a freshly recomputed map.
func (c *CounterCache) SetCounts(ctx context.Context, userID uuid.UUID, counts map[uuid.UUID]int) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, unreadKey(userID), data, c.ttl).Err()
}

// GetCounts returns the cached map, or ok=false on a miss.
func (c *CounterCache) GetCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, unreadKey(userID)).Result()
	if err == goredis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, err
	}
	var counts map[uuid.UUID]int
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		return nil, false, err
	}
	return counts, true, nil
}

// Invalidate drops the cached map after a write touches unread state.
func (c *CounterCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, unreadKey(userID)).Err()
}
