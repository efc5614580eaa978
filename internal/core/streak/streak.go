// Package streak computes strict calendar-day streaks from a habit's
// completed check-ins.
package streak

import (
	"errors"
	"fmt"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
)

// ErrUnsortedInput is the panic value (wrapped) raised when events are not
// ordered newest first.
var ErrUnsortedInput = errors.New("check-in events are not sorted by descending date")

type Result struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// Compute walks back one day at a time from today and counts consecutive
// days carrying a completed event. A single missed day ends the streak
// whatever the habit's frequency.
//
// events must be sorted by descending date; Compute panics otherwise. Events
// after today and events not completed are skipped, repeated dates count once.
// Longest never drops below previousLongest.
func Compute(events []checkin.Event, today time.Time, previousLongest int) Result {
	mustBeDescending(events)

	today = calendar.Day(today)
	current := 0
	expected := today

	for _, e := range events {
		if !e.Completed {
			continue
		}
		d := calendar.Day(e.Date)
		if d.After(today) {
			continue
		}
		if d.Equal(expected) {
			current++
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		// already counted on the previous step
		if d.Equal(expected.AddDate(0, 0, 1)) {
			continue
		}
		break
	}

	return Result{Current: current, Longest: max(previousLongest, current)}
}

// LongestRun returns the longest run of consecutive completed days anywhere
// in events, which must be sorted by descending date.
func LongestRun(events []checkin.Event) int {
	mustBeDescending(events)

	best, run := 0, 0
	var prev time.Time
	for _, e := range events {
		if !e.Completed {
			continue
		}
		d := calendar.Day(e.Date)
		switch {
		case run == 0:
			run = 1
		case d.Equal(prev):
			continue
		case d.Equal(prev.AddDate(0, 0, -1)):
			run++
		default:
			run = 1
		}
		prev = d
		best = max(best, run)
	}
	return best
}

func mustBeDescending(events []checkin.Event) {
	for i := 1; i < len(events); i++ {
		prev, cur := calendar.Day(events[i-1].Date), calendar.Day(events[i].Date)
		if cur.After(prev) {
			panic(fmt.Errorf("%w: %s follows %s at index %d",
				ErrUnsortedInput, calendar.Format(cur), calendar.Format(prev), i))
		}
	}
}
