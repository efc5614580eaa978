package domain

import (
	"errors"
	"time"
)

var ErrSnapshotNotFound = errors.New("habit snapshot not found")

// HabitSnapshot is the derived state of a habit as of one day, published
// after each recompute so readers do not have to replay history.
type HabitSnapshot struct {
	HabitID        string    `json:"habit_id"`
	AsOf           string    `json:"as_of"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	WindowDays     int       `json:"window_days"`
	Expected       int       `json:"expected"`
	Actual         int       `json:"actual"`
	CompletionRate float64   `json:"completion_rate"`
	DueToday       bool      `json:"due_today"`
	Remaining      int       `json:"remaining_in_period"`
	ComputedAt     time.Time `json:"computed_at"`
}
