// Package completion measures how many scheduled occurrences of a habit were
// actually completed over a date window.
package completion

import (
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/recurrence"
)

type Rate struct {
	Expected   int     `json:"expected"`
	Actual     int     `json:"actual"`
	Percentage float64 `json:"percentage"`
}

// ComputeRate compares completed events dated within [start, end] with the
// occurrences rule schedules there. Percentage stays within [0, 100]: it is 0
// when nothing was expected and capped at 100 when users over-log.
func ComputeRate(rule recurrence.Rule, events []checkin.Event, start, end time.Time) Rate {
	lo, hi := calendar.Day(start), calendar.Day(end)

	r := Rate{
		Expected: rule.ExpectedCount(calendar.Max(lo, rule.StartDate()), hi),
		Actual:   countCompleted(events, lo, hi),
	}
	r.Percentage = Percentage(r.Actual, r.Expected)
	return r
}

// Percentage returns actual/expected as a percentage capped at 100. A zero or
// negative expected yields 0.
func Percentage(actual, expected int) float64 {
	if expected <= 0 || actual <= 0 {
		return 0
	}
	p := float64(actual) / float64(expected) * 100
	if p > 100 {
		return 100
	}
	return p
}

func countCompleted(events []checkin.Event, lo, hi time.Time) int {
	n := 0
	for _, e := range events {
		if !e.Completed {
			continue
		}
		d := calendar.Day(e.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		n++
	}
	return n
}
