package domain

import (
	"context"
	"errors"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

var (
	ErrHabitNotFound   = errors.New("habit not found")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrHabitConflict   = errors.New("habit was modified concurrently")
	ErrCheckInConflict = errors.New("check-in already exists")
)

// StreakFunc computes a habit's new streak from the longest streak stored on
// its row.
type StreakFunc func(previousLongest int) streak.Result

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits associated with a specific user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListActiveIDs returns the ids of every active habit, for full recomputes.
	ListActiveIDs(ctx context.Context) ([]string, error)

	// UpdateStreak runs compute while holding the habit's row and stores the
	// result. Concurrent calls for the same habit are serialized.
	UpdateStreak(ctx context.Context, id string, compute StreakFunc) (streak.Result, error)
}

type CheckInRepository interface {
	Create(ctx context.Context, c *CheckIn) error

	// ListByHabitID returns the habit's check-ins dated within [from, to],
	// newest first. A zero from means no lower bound.
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*CheckIn, error)

	// ListByUserIDAndDateRange returns every check-in of the user's habits
	// dated within [from, to].
	ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*CheckIn, error)
}

type GoalRepository interface {
	Create(ctx context.Context, g *Goal) error
	GetByID(ctx context.Context, id string) (*Goal, error)
	ListByHabitID(ctx context.Context, habitID string) ([]*Goal, error)

	// UpdateProgress stores current_value, status and completed_date.
	UpdateProgress(ctx context.Context, g *Goal) error
}
