// Package checkin defines the check-in facts the engine reads.
package checkin

import (
	"sort"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
)

// Event is one check-in of a habit on a calendar date. It is supplied by the
// caller and never mutated by the engine.
type Event struct {
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Value     *float64  `json:"value,omitempty"`
}

func NewEvent(date time.Time, completed bool) Event {
	return Event{Date: calendar.Day(date), Completed: completed}
}

// WithValue returns a copy of e carrying the numeric magnitude v.
func (e Event) WithValue(v float64) Event {
	e.Value = &v
	return e
}

// Magnitude returns the event's value, or 1 when none was recorded.
func Magnitude(e Event) float64 {
	if e.Value == nil {
		return 1
	}
	return *e.Value
}

// Completed returns the completed events of in, preserving order.
func Completed(in []Event) []Event {
	out := make([]Event, 0, len(in))
	for _, e := range in {
		if e.Completed {
			out = append(out, e)
		}
	}
	return out
}

// SortDescending returns a copy of in ordered newest first.
func SortDescending(in []Event) []Event {
	out := make([]Event, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return calendar.Day(out[i].Date).After(calendar.Day(out[j].Date))
	})
	return out
}

// Counter answers completed-count lookups over a single habit's events.
type Counter struct {
	HabitID string
	Events  []Event
}

// CountCompleted counts completed events dated within [from, to]. Lookups for
// another habit return zero.
func (c Counter) CountCompleted(habitID string, from, to time.Time) int {
	if habitID != c.HabitID {
		return 0
	}
	lo, hi := calendar.Day(from), calendar.Day(to)
	n := 0
	for _, e := range c.Events {
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
