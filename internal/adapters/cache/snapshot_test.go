package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
)

func setupSnapshots(t *testing.T, ttl time.Duration) (*SnapshotCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotCache(client, ttl), mr
}

func TestSnapshotCache(t *testing.T) {
	ctx := context.Background()
	snap := domain.HabitSnapshot{
		HabitID:        "h1",
		AsOf:           "2024-01-07",
		CurrentStreak:  3,
		LongestStreak:  5,
		WindowDays:     7,
		Expected:       7,
		Actual:         4,
		CompletionRate: 57.14,
		DueToday:       true,
		Remaining:      1,
		ComputedAt:     time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC),
	}

	t.Run("Put then Get", func(t *testing.T) {
		c, _ := setupSnapshots(t, time.Hour)
		require.NoError(t, c.Put(ctx, snap))

		got, err := c.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, snap, *got)
	})

	t.Run("Missing key", func(t *testing.T) {
		c, _ := setupSnapshots(t, time.Hour)
		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Entries expire", func(t *testing.T) {
		c, mr := setupSnapshots(t, time.Minute)
		require.NoError(t, c.Put(ctx, snap))
		assert.Equal(t, time.Minute, mr.TTL(snapshotKey("h1")))

		mr.FastForward(2 * time.Minute)
		_, err := c.Get(ctx, "h1")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Corrupted entry", func(t *testing.T) {
		c, mr := setupSnapshots(t, 0)
		require.NoError(t, mr.Set(snapshotKey("h1"), "{"))

		_, err := c.Get(ctx, "h1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		c, mr := setupSnapshots(t, 0)
		require.NoError(t, c.Put(ctx, snap))
		require.NoError(t, c.Delete(ctx, "h1"))
		assert.False(t, mr.Exists(snapshotKey("h1")))
	})
}
