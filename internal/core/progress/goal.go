// Package progress projects a goal's derived state from its habit's
// check-in history.
package progress

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownGoalType   = errors.New("unknown goal type")
	ErrUnknownGoalStatus = errors.New("unknown goal status")
)

type GoalType string

const (
	GoalCount    GoalType = "count"
	GoalDuration GoalType = "duration"
	GoalRate     GoalType = "rate"
	GoalStreak   GoalType = "streak"
)

// ParseGoalType accepts stored goal types in any case. Legacy magnitude
// types (distance, weight, custom) are summed like count goals.
func ParseGoalType(s string) (GoalType, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "count", "distance", "weight", "custom":
		return GoalCount, nil
	case "duration":
		return GoalDuration, nil
	case "rate", "completion_rate":
		return GoalRate, nil
	case "streak":
		return GoalStreak, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGoalType, s)
	}
}

type GoalStatus string

const (
	StatusInProgress GoalStatus = "in_progress"
	StatusCompleted  GoalStatus = "completed"
	StatusAbandoned  GoalStatus = "abandoned"
)

// ParseGoalStatus maps every status vocabulary the goals table has carried
// onto the three current values.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "in_progress", "active", "not_started":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "abandoned", "paused", "cancelled", "canceled":
		return StatusAbandoned, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGoalStatus, s)
	}
}

// Goal is the projector's view of a stored goal.
type Goal struct {
	ID            string
	HabitID       string
	Type          GoalType
	Target        float64
	StartDate     time.Time
	DueDate       *time.Time
	Status        GoalStatus
	CompletedDate *time.Time
}

// GoalProgress is the derived state of a goal on a given day.
type GoalProgress struct {
	CurrentValue  float64    `json:"current_value"`
	Percentage    float64    `json:"progress_percentage"`
	IsCompleted   bool       `json:"is_completed"`
	IsOverdue     bool       `json:"is_overdue"`
	IsOnTrack     bool       `json:"is_on_track"`
	Status        GoalStatus `json:"status"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}
