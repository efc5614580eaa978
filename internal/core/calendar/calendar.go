// Package calendar holds the date arithmetic shared by the progress engine.
//
// Every date produced here is a midnight UTC time.Time. Inputs may carry any
// clock or location; only their wall-clock date is kept.
package calendar

import (
	"time"
)

const (
	DateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

// Day returns the calendar date of t (as seen in t's own location) at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now observed in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// DaysInclusive counts the days of [a, b]. It is zero when b is before a.
func DaysInclusive(a, b time.Time) int {
	n := DaysBetween(a, b) + 1
	if n < 0 {
		return 0
	}
	return n
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// EndOfWeek returns the Sunday of the week containing t.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6)
}

func StartOfMonth(t time.Time) time.Time {
	d := Day(t)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

func DaysInMonth(t time.Time) int {
	return EndOfMonth(t).Day()
}

func Max(a, b time.Time) time.Time {
	if Day(a).After(Day(b)) {
		return Day(a)
	}
	return Day(b)
}

func Min(a, b time.Time) time.Time {
	if Day(a).Before(Day(b)) {
		return Day(a)
	}
	return Day(b)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func Format(t time.Time) string {
	return Day(t).Format(DateLayout)
}
