// Package recurrence decides when a habit is scheduled and how many
// occurrences a date window is expected to hold.
package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
)

type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindCustom  Kind = "custom"
)

// ParseKind accepts the stored frequency in any letter case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindDaily, KindWeekly, KindMonthly, KindCustom:
		return k, nil
	case "":
		return KindDaily, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, s)
	}
}

// Schedule is the occurrence policy of a rule. The set of implementations is
// closed: WeekdaySet, MonthDaySet and PeriodCount.
type Schedule interface {
	schedule()
}

// WeekdaySet lists the explicit weekdays of a weekly rule, sorted and unique.
type WeekdaySet []time.Weekday

// MonthDaySet lists the explicit days of month (1-31) of a monthly rule, sorted and unique.
type MonthDaySet []int

// PeriodCount is the implicit mode: N occurrences per period, no named days.
type PeriodCount struct {
	N int
}

func (WeekdaySet) schedule()  {}
func (MonthDaySet) schedule() {}
func (PeriodCount) schedule() {}

func (s WeekdaySet) Contains(d time.Weekday) bool {
	for _, w := range s {
		if w == d {
			return true
		}
	}
	return false
}

func (s MonthDaySet) Contains(d int) bool {
	for _, m := range s {
		if m == d {
			return true
		}
	}
	return false
}

// Rule is an immutable scheduling policy. Build it with NewDaily, NewWeekly,
// NewMonthly or NewCustom.
type Rule struct {
	kind     Kind
	required int
	schedule Schedule
	start    time.Time
}

func normalizeRequired(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func NewDaily(start time.Time) Rule {
	return Rule{
		kind:     KindDaily,
		required: 1,
		schedule: PeriodCount{N: 1},
		start:    calendar.Day(start),
	}
}

// NewCustom schedules every day with required occurrences per day.
func NewCustom(start time.Time, required int) Rule {
	required = normalizeRequired(required)
	return Rule{
		kind:     KindCustom,
		required: required,
		schedule: PeriodCount{N: required},
		start:    calendar.Day(start),
	}
}

// NewWeekly builds a weekly rule. Without days the rule runs in implicit mode.
func NewWeekly(start time.Time, required int, days ...time.Weekday) Rule {
	required = normalizeRequired(required)
	r := Rule{kind: KindWeekly, required: required, start: calendar.Day(start)}

	set := uniqueWeekdays(days)
	if len(set) == 0 {
		r.schedule = PeriodCount{N: required}
	} else {
		r.schedule = set
	}
	return r
}

// NewMonthly builds a monthly rule. Days outside 1-31 are ignored; without
// valid days the rule runs in implicit mode.
func NewMonthly(start time.Time, required int, days ...int) Rule {
	required = normalizeRequired(required)
	r := Rule{kind: KindMonthly, required: required, start: calendar.Day(start)}

	set := uniqueMonthDays(days)
	if len(set) == 0 {
		r.schedule = PeriodCount{N: required}
	} else {
		r.schedule = set
	}
	return r
}

func uniqueWeekdays(days []time.Weekday) WeekdaySet {
	seen := make(map[time.Weekday]bool, len(days))
	var out WeekdaySet
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func uniqueMonthDays(days []int) MonthDaySet {
	seen := make(map[int]bool, len(days))
	var out MonthDaySet
	for _, d := range days {
		if d < 1 || d > 31 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func (r Rule) Kind() Kind           { return r.kind }
func (r Rule) RequiredCount() int   { return normalizeRequired(r.required) }
func (r Rule) Schedule() Schedule   { return r.schedule }
func (r Rule) StartDate() time.Time { return r.start }

// Implicit reports whether the rule counts occurrences per period instead of
// naming days. Only weekly and monthly rules can be implicit.
func (r Rule) Implicit() bool {
	if r.kind != KindWeekly && r.kind != KindMonthly {
		return false
	}
	_, ok := r.schedule.(PeriodCount)
	return ok
}

// IsOccurrence reports whether date is individually scheduled. Implicit weekly
// and monthly rules never schedule a single date; use RemainingInPeriod.
func (r Rule) IsOccurrence(date time.Time) bool {
	d := calendar.Day(date)
	if d.Before(r.start) {
		return false
	}

	switch s := r.schedule.(type) {
	case WeekdaySet:
		return s.Contains(d.Weekday())
	case MonthDaySet:
		return s.Contains(d.Day())
	case PeriodCount:
		return r.kind == KindDaily || r.kind == KindCustom
	default:
		return false
	}
}

// ExpectedCount returns the number of occurrences scheduled in [start, end],
// ignoring any part of the window before the rule's start date.
func (r Rule) ExpectedCount(start, end time.Time) int {
	lo := calendar.Max(start, r.start)
	hi := calendar.Day(end)
	if lo.After(hi) {
		return 0
	}

	switch s := r.schedule.(type) {
	case WeekdaySet:
		return countWeekdays(lo, hi, s)
	case MonthDaySet:
		return countMonthDays(lo, hi, s)
	case PeriodCount:
		switch r.kind {
		case KindDaily:
			return calendar.DaysInclusive(lo, hi)
		case KindCustom:
			return calendar.DaysInclusive(lo, hi) * r.RequiredCount()
		case KindWeekly:
			return r.countPeriods(lo, hi, calendar.StartOfWeek, func(t time.Time) time.Time {
				return t.AddDate(0, 0, 7)
			}) * r.RequiredCount()
		case KindMonthly:
			return r.countPeriods(lo, hi, calendar.StartOfMonth, func(t time.Time) time.Time {
				return t.AddDate(0, 1, 0)
			}) * r.RequiredCount()
		}
	}
	return 0
}

// countPeriods counts periods whose effective start, the later of the period
// start and the rule start, falls inside [lo, hi].
func (r Rule) countPeriods(lo, hi time.Time, startOf, next func(time.Time) time.Time) int {
	n := 0
	for p := startOf(lo); !p.After(hi); p = next(p) {
		eff := calendar.Max(p, r.start)
		if !eff.Before(lo) && !eff.After(hi) {
			n++
		}
	}
	return n
}

func countWeekdays(lo, hi time.Time, set WeekdaySet) int {
	total := calendar.DaysInclusive(lo, hi)
	n := (total / 7) * len(set)

	d := lo.AddDate(0, 0, (total/7)*7)
	for ; !d.After(hi); d = d.AddDate(0, 0, 1) {
		if set.Contains(d.Weekday()) {
			n++
		}
	}
	return n
}

func countMonthDays(lo, hi time.Time, set MonthDaySet) int {
	n := 0
	for m := calendar.StartOfMonth(lo); !m.After(hi); m = m.AddDate(0, 1, 0) {
		last := calendar.DaysInMonth(m)
		for _, dom := range set {
			if dom > last {
				continue
			}
			d := time.Date(m.Year(), m.Month(), dom, 0, 0, 0, 0, time.UTC)
			if !d.Before(lo) && !d.After(hi) {
				n++
			}
		}
	}
	return n
}

// Period returns the recurrence window containing asOf: the day for daily and
// custom rules, the Monday-Sunday week for weekly, the calendar month for monthly.
func (r Rule) Period(asOf time.Time) (time.Time, time.Time) {
	d := calendar.Day(asOf)
	switch r.kind {
	case KindWeekly:
		return calendar.StartOfWeek(d), calendar.EndOfWeek(d)
	case KindMonthly:
		return calendar.StartOfMonth(d), calendar.EndOfMonth(d)
	default:
		return d, d
	}
}

// CompletionCounter counts a habit's completed check-ins within [from, to].
type CompletionCounter interface {
	CountCompleted(habitID string, from, to time.Time) int
}

// RemainingInPeriod returns how many completions the period containing asOf
// still needs. Completions on any day of the period count, named occurrence
// day or not.
func (r Rule) RemainingInPeriod(asOf time.Time, habitID string, lookup CompletionCounter) int {
	d := calendar.Day(asOf)
	if d.Before(r.start) {
		return 0
	}

	from, to := r.Period(d)
	done := 0
	if lookup != nil {
		done = lookup.CountCompleted(habitID, from, to)
	}

	remaining := r.RequiredCount() - done
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsDueToday reports whether the habit should still be checked in on today.
func (r Rule) IsDueToday(today time.Time, habitID string, lookup CompletionCounter) bool {
	d := calendar.Day(today)
	if d.Before(r.start) {
		return false
	}
	if !r.Implicit() && !r.IsOccurrence(d) {
		return false
	}
	return r.RemainingInPeriod(d, habitID, lookup) > 0
}

func (r Rule) String() string {
	switch s := r.schedule.(type) {
	case WeekdaySet:
		names := make([]string, len(s))
		for i, d := range s {
			names[i] = d.String()[:3]
		}
		return fmt.Sprintf("%s x%d on %s from %s", r.kind, r.RequiredCount(), strings.Join(names, ","), calendar.Format(r.start))
	case MonthDaySet:
		return fmt.Sprintf("%s x%d on days %v from %s", r.kind, r.RequiredCount(), []int(s), calendar.Format(r.start))
	default:
		return fmt.Sprintf("%s x%d from %s", r.kind, r.RequiredCount(), calendar.Format(r.start))
	}
}
