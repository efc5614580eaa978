package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
)

func TestParseGoalType(t *testing.T) {
	tests := map[string]progress.GoalType{
		"COUNT":    progress.GoalCount,
		"distance": progress.GoalCount,
		"Weight":   progress.GoalCount,
		"custom":   progress.GoalCount,
		"duration": progress.GoalDuration,
		"rate":     progress.GoalRate,
		"Streak":   progress.GoalStreak,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := progress.ParseGoalType(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := progress.ParseGoalType("calories")
	assert.ErrorIs(t, err, progress.ErrUnknownGoalType)
}

func TestParseGoalStatus(t *testing.T) {
	tests := map[string]progress.GoalStatus{
		"ACTIVE":      progress.StatusInProgress,
		"in_progress": progress.StatusInProgress,
		"":            progress.StatusInProgress,
		"Completed":   progress.StatusCompleted,
		"paused":      progress.StatusAbandoned,
		"CANCELLED":   progress.StatusAbandoned,
		"abandoned":   progress.StatusAbandoned,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := progress.ParseGoalStatus(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := progress.ParseGoalStatus("archived")
	assert.ErrorIs(t, err, progress.ErrUnknownGoalStatus)
}
