package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
)

const snapshotKeyPrefix = "habit:snapshot:"

// SnapshotCache stores the latest HabitSnapshot of each habit as JSON.
// A zero TTL keeps entries until they are overwritten.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(habitID string) string {
	return snapshotKeyPrefix + habitID
}

func (c *SnapshotCache) Put(ctx context.Context, snap domain.HabitSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(snap.HabitID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot for habit %s: %w", snap.HabitID, err)
	}
	return nil
}

func (c *SnapshotCache) Get(ctx context.Context, habitID string) (*domain.HabitSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(habitID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot for habit %s: %w", habitID, err)
	}

	var snap domain.HabitSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupted snapshot for habit %s: %w", habitID, err)
	}
	return &snap, nil
}

func (c *SnapshotCache) Delete(ctx context.Context, habitID string) error {
	return c.client.Del(ctx, snapshotKey(habitID)).Err()
}
