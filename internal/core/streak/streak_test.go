package streak_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

var today = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

func daysAgo(offsets ...int) []checkin.Event {
	out := make([]checkin.Event, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, checkin.NewEvent(today.AddDate(0, 0, -o), true))
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name            string
		events          []checkin.Event
		previousLongest int
		want            streak.Result
	}{
		{
			name:   "Three consecutive days ending today",
			events: daysAgo(0, 1, 2),
			want:   streak.Result{Current: 3, Longest: 3},
		},
		{
			name:   "Gap two days ago stops the walk",
			events: daysAgo(0, 1, 3),
			want:   streak.Result{Current: 2, Longest: 2},
		},
		{
			name:   "Nothing today means no current streak",
			events: daysAgo(1, 2, 3),
			want:   streak.Result{Current: 0, Longest: 0},
		},
		{
			name:            "Empty history keeps the previous longest",
			events:          nil,
			previousLongest: 12,
			want:            streak.Result{Current: 0, Longest: 12},
		},
		{
			name:            "Current above previous longest raises it",
			events:          daysAgo(0, 1, 2, 3),
			previousLongest: 2,
			want:            streak.Result{Current: 4, Longest: 4},
		},
		{
			name:   "Repeated dates count once",
			events: daysAgo(0, 0, 1, 1, 2),
			want:   streak.Result{Current: 3, Longest: 3},
		},
		{
			name:   "Future events are ignored",
			events: daysAgo(-2, -1, 0, 1),
			want:   streak.Result{Current: 2, Longest: 2},
		},
		{
			name: "Incomplete events are skipped",
			events: []checkin.Event{
				checkin.NewEvent(today, true),
				checkin.NewEvent(today.AddDate(0, 0, -1), false),
				checkin.NewEvent(today.AddDate(0, 0, -1), true),
			},
			want: streak.Result{Current: 2, Longest: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streak.Compute(tt.events, today, tt.previousLongest))
		})
	}
}

func TestCompute_DailyScenario(t *testing.T) {
	events := []checkin.Event{
		checkin.NewEvent(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), true),
		checkin.NewEvent(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), true),
		checkin.NewEvent(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true),
	}

	got := streak.Compute(events, time.Date(2024, 1, 7, 21, 30, 0, 0, time.UTC), 0)
	assert.Equal(t, 3, got.Current)
}

func TestCompute_Idempotent(t *testing.T) {
	events := daysAgo(0, 1, 4, 5, 6)
	first := streak.Compute(events, today, 1)
	second := streak.Compute(events, today, 1)
	assert.Equal(t, first, second)
}

func TestCompute_LongestIsMonotonic(t *testing.T) {
	histories := [][]checkin.Event{
		daysAgo(0, 1, 2, 3, 4),
		daysAgo(0, 1),
		nil,
		daysAgo(0),
		daysAgo(0, 1, 2, 3, 4, 5, 6),
	}

	longest := 0
	for _, h := range histories {
		res := streak.Compute(h, today, longest)
		assert.GreaterOrEqual(t, res.Longest, longest)
		longest = res.Longest
	}
	assert.Equal(t, 7, longest)
}

func TestCompute_UnsortedInputPanics(t *testing.T) {
	events := daysAgo(2, 0, 1)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, streak.ErrUnsortedInput))
	}()

	streak.Compute(events, today, 0)
	t.Fatal("expected a panic")
}

func TestLongestRun(t *testing.T) {
	assert.Equal(t, 0, streak.LongestRun(nil))
	assert.Equal(t, 1, streak.LongestRun(daysAgo(3)))
	assert.Equal(t, 4, streak.LongestRun(daysAgo(0, 1, 5, 6, 7, 8, 10)))
	assert.Equal(t, 2, streak.LongestRun(daysAgo(0, 0, 1, 1)))

	assert.Panics(t, func() { streak.LongestRun(daysAgo(1, 0)) })
}
