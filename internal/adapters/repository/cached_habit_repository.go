package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const defaultHabitListTTL = 30 * time.Minute

// CachedHabitRepository keeps each user's habit list in Redis. Writes go to
// next and drop the user's entry.
type CachedHabitRepository struct {
	next   domain.HabitRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client, logger *slog.Logger) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:   next,
		cache:  cache,
		ttl:    defaultHabitListTTL,
		logger: logger,
	}
}

func (r *CachedHabitRepository) cacheKey(userID string) string {
	return fmt.Sprintf("habits:%s", userID)
}

func (r *CachedHabitRepository) log(ctx context.Context) *slog.Logger {
	return logging.For(ctx, r.logger, "habit_cache")
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.log(ctx).WarnContext(ctx, "cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal([]byte(val), &habits); err == nil {
			return habits, nil
		}

		r.log(ctx).WarnContext(ctx, "corrupted cache entry, cleaning up key", "user_id", userID)
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.log(ctx).WarnContext(ctx, "redis read error", "error", err)
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			r.log(ctx).WarnContext(ctx, "redis set error", "error", setErr)
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedHabitRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	return r.next.ListActiveIDs(ctx)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID)
	return nil
}

func (r *CachedHabitRepository) UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error) {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID)
	}

	return r.next.UpdateStreak(ctx, id, compute)
}
