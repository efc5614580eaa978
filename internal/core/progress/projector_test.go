package progress_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/recurrence"
)

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func daily() recurrence.Rule {
	return recurrence.NewDaily(jan(1))
}

func completedOn(days ...int) []checkin.Event {
	out := make([]checkin.Event, 0, len(days))
	for _, d := range days {
		out = append(out, checkin.NewEvent(jan(d), true))
	}
	return out
}

func countGoal(target float64) progress.Goal {
	return progress.Goal{
		ID:        "g1",
		HabitID:   "h1",
		Type:      progress.GoalCount,
		Target:    target,
		StartDate: jan(1),
		Status:    progress.StatusInProgress,
	}
}

func TestComputeProgress_CountCompletionTransition(t *testing.T) {
	goal := countGoal(10)
	events := completedOn(1, 2, 3, 4, 5, 6, 7, 8, 9)

	before := progress.ComputeProgress(goal, daily(), events, jan(15))
	assert.Equal(t, 9.0, before.CurrentValue)
	assert.InDelta(t, 90.0, before.Percentage, 1e-9)
	assert.False(t, before.IsCompleted)
	assert.Nil(t, before.CompletedDate)
	assert.Equal(t, progress.StatusInProgress, before.Status)

	events = append(events, checkin.NewEvent(jan(10), true))
	after := progress.ComputeProgress(goal, daily(), events, jan(15))
	assert.Equal(t, 10.0, after.CurrentValue)
	assert.Equal(t, 100.0, after.Percentage)
	assert.True(t, after.IsCompleted)
	assert.Equal(t, progress.StatusCompleted, after.Status)
	require.NotNil(t, after.CompletedDate)
	assert.Equal(t, jan(10), *after.CompletedDate)
}

func TestComputeProgress_Count(t *testing.T) {
	t.Run("Values are summed in any input order", func(t *testing.T) {
		events := []checkin.Event{
			checkin.NewEvent(jan(3), true).WithValue(2.5),
			checkin.NewEvent(jan(1), true).WithValue(1),
			checkin.NewEvent(jan(2), true).WithValue(2.5),
		}
		got := progress.ComputeProgress(countGoal(5), daily(), events, jan(10))

		assert.Equal(t, 6.0, got.CurrentValue)
		require.NotNil(t, got.CompletedDate)
		assert.Equal(t, jan(3), *got.CompletedDate)
	})

	t.Run("Events before start, after today or incomplete are ignored", func(t *testing.T) {
		goal := countGoal(10)
		goal.StartDate = jan(5)
		events := []checkin.Event{
			checkin.NewEvent(jan(4), true),
			checkin.NewEvent(jan(5), true),
			checkin.NewEvent(jan(6), false),
			checkin.NewEvent(jan(7), true),
			checkin.NewEvent(jan(20), true),
		}
		got := progress.ComputeProgress(goal, daily(), events, jan(10))
		assert.Equal(t, 2.0, got.CurrentValue)
	})

	t.Run("Zero start date falls back to rule start", func(t *testing.T) {
		goal := countGoal(10)
		goal.StartDate = time.Time{}
		got := progress.ComputeProgress(goal, recurrence.NewDaily(jan(3)), completedOn(1, 2, 3, 4), jan(10))
		assert.Equal(t, 2.0, got.CurrentValue)
	})
}

func TestComputeProgress_Types(t *testing.T) {
	tests := []struct {
		name      string
		goal      progress.Goal
		events    []checkin.Event
		today     time.Time
		wantValue float64
		wantDone  bool
	}{
		{
			name:      "Duration midway",
			goal:      progress.Goal{Type: progress.GoalDuration, Target: 10, StartDate: jan(1), DueDate: ptr(jan(10))},
			today:     jan(5),
			wantValue: 5,
		},
		{
			name:      "Duration bounded by due date",
			goal:      progress.Goal{Type: progress.GoalDuration, Target: 10, StartDate: jan(1), DueDate: ptr(jan(10))},
			today:     jan(20),
			wantValue: 10,
			wantDone:  true,
		},
		{
			name:      "Duration before start",
			goal:      progress.Goal{Type: progress.GoalDuration, Target: 10, StartDate: jan(10)},
			today:     jan(5),
			wantValue: 0,
		},
		{
			name:      "Rate over goal window",
			goal:      progress.Goal{Type: progress.GoalRate, Target: 80, StartDate: jan(1)},
			events:    completedOn(1, 2, 3, 4),
			today:     jan(5),
			wantValue: 80,
			wantDone:  true,
		},
		{
			name:      "Streak from unsorted history",
			goal:      progress.Goal{Type: progress.GoalStreak, Target: 3, StartDate: jan(1)},
			events:    completedOn(3, 1, 5, 4),
			today:     jan(5),
			wantValue: 3,
			wantDone:  true,
		},
		{
			name:      "Streak broken by gap",
			goal:      progress.Goal{Type: progress.GoalStreak, Target: 3, StartDate: jan(1)},
			events:    completedOn(5, 4, 2),
			today:     jan(5),
			wantValue: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progress.ComputeProgress(tt.goal, daily(), tt.events, tt.today)
			assert.InDelta(t, tt.wantValue, got.CurrentValue, 1e-9)
			assert.Equal(t, tt.wantDone, got.IsCompleted)
		})
	}
}

func TestComputeProgress_Guards(t *testing.T) {
	t.Run("Non-positive target", func(t *testing.T) {
		got := progress.ComputeProgress(countGoal(0), daily(), completedOn(1, 2), jan(5))
		assert.Equal(t, 0.0, got.Percentage)
		assert.True(t, got.IsCompleted)
		assert.Equal(t, progress.StatusCompleted, got.Status)
		assert.Equal(t, 2.0, got.CurrentValue)
		require.NotNil(t, got.CompletedDate)
		assert.Equal(t, jan(5), *got.CompletedDate)
	})

	t.Run("Zero target with no history is already reached", func(t *testing.T) {
		got := progress.ComputeProgress(countGoal(0), daily(), nil, jan(5))
		assert.Equal(t, 0.0, got.Percentage)
		assert.True(t, got.IsCompleted)
		assert.False(t, got.IsOverdue)
	})

	t.Run("No due date is never overdue and always on track", func(t *testing.T) {
		got := progress.ComputeProgress(countGoal(100), daily(), nil, jan(30))
		assert.False(t, got.IsOverdue)
		assert.True(t, got.IsOnTrack)
	})

	t.Run("Stored completion is kept", func(t *testing.T) {
		goal := countGoal(10)
		goal.Status = progress.StatusCompleted
		goal.CompletedDate = ptr(jan(8))

		got := progress.ComputeProgress(goal, daily(), completedOn(1), jan(20))
		assert.True(t, got.IsCompleted)
		assert.Equal(t, progress.StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedDate)
		assert.Equal(t, jan(8), *got.CompletedDate)
	})

	t.Run("Abandoned keeps status and is never overdue", func(t *testing.T) {
		goal := countGoal(10)
		goal.Status = progress.StatusAbandoned
		goal.DueDate = ptr(jan(5))

		got := progress.ComputeProgress(goal, daily(), completedOn(1), jan(20))
		assert.Equal(t, progress.StatusAbandoned, got.Status)
		assert.False(t, got.IsOverdue)
	})
}

func TestComputeProgress_Deadline(t *testing.T) {
	tests := []struct {
		name        string
		events      []checkin.Event
		today       time.Time
		wantOverdue bool
		wantOnTrack bool
	}{
		{
			name:        "Past due and short",
			events:      completedOn(1, 2),
			today:       jan(15),
			wantOverdue: true,
			wantOnTrack: false,
		},
		{
			name:        "Ahead of the linear curve",
			events:      completedOn(1, 2, 3, 4, 5),
			today:       jan(6),
			wantOnTrack: true,
		},
		{
			name:        "Behind the tolerance band",
			events:      completedOn(1, 2, 3),
			today:       jan(6),
			wantOnTrack: false,
		},
		{
			name:        "Due today is not overdue",
			events:      completedOn(1),
			today:       jan(11),
			wantOnTrack: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := countGoal(10)
			goal.DueDate = ptr(jan(11))

			got := progress.ComputeProgress(goal, daily(), tt.events, tt.today)
			assert.Equal(t, tt.wantOverdue, got.IsOverdue)
			assert.Equal(t, tt.wantOnTrack, got.IsOnTrack)
		})
	}
}

func TestComputeProgress_Idempotent(t *testing.T) {
	goal := countGoal(5)
	events := completedOn(1, 2, 3, 4, 5, 6)
	assert.Equal(t,
		progress.ComputeProgress(goal, daily(), events, jan(10)),
		progress.ComputeProgress(goal, daily(), events, jan(10)),
	)
}
