package progress

import (
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/completion"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/recurrence"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

// OnTrackTolerance is the share of the time-linear expectation a goal must
// reach to count as on track.
const OnTrackTolerance = 0.8

// ComputeProgress derives goal's state on today from rule and the habit's
// events. It has no side effects: persisting the result is the caller's job.
//
// A goal stored as completed stays completed. An abandoned goal keeps its
// status and is never overdue.
func ComputeProgress(goal Goal, rule recurrence.Rule, events []checkin.Event, today time.Time) GoalProgress {
	today = calendar.Day(today)
	start := goal.StartDate
	if start.IsZero() {
		start = rule.StartDate()
	}
	start = calendar.Day(start)

	var (
		value    float64
		crossing *time.Time
	)
	switch goal.Type {
	case GoalDuration:
		value = float64(durationDays(start, goal.DueDate, today))
	case GoalRate:
		value = completion.ComputeRate(rule, events, start, today).Percentage
	case GoalStreak:
		value = float64(streak.Compute(checkin.SortDescending(checkin.Completed(events)), today, 0).Current)
	default:
		value, crossing = magnitudeSince(events, start, today, goal.Target)
	}

	p := GoalProgress{
		CurrentValue: value,
		Percentage:   percentage(value, goal.Target),
	}
	p.IsCompleted = value >= goal.Target || goal.Status == StatusCompleted

	switch {
	case goal.Status == StatusAbandoned:
		p.Status = StatusAbandoned
	case p.IsCompleted:
		p.Status = StatusCompleted
	default:
		p.Status = StatusInProgress
	}

	if p.IsCompleted {
		p.CompletedDate = completedOn(goal.CompletedDate, crossing, today)
	}

	if goal.DueDate != nil {
		due := calendar.Day(*goal.DueDate)
		p.IsOverdue = today.After(due) && !p.IsCompleted && p.Status != StatusAbandoned
	}
	p.IsOnTrack = onTrack(p, start, goal.DueDate, today)
	return p
}

func percentage(value, target float64) float64 {
	if target <= 0 || value <= 0 {
		return 0
	}
	pct := value / target * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// magnitudeSince sums completed event magnitudes dated within [start, today]
// and reports the date on which the running total first reached target.
func magnitudeSince(events []checkin.Event, start, today time.Time, target float64) (float64, *time.Time) {
	sorted := checkin.SortDescending(events)

	var (
		sum      float64
		crossing *time.Time
	)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		if !e.Completed {
			continue
		}
		d := calendar.Day(e.Date)
		if d.Before(start) || d.After(today) {
			continue
		}
		sum += checkin.Magnitude(e)
		if crossing == nil && target > 0 && sum >= target {
			crossing = &d
		}
	}
	return sum, crossing
}

// durationDays counts the days elapsed from start through today, stopping at
// the due date.
func durationDays(start time.Time, due *time.Time, today time.Time) int {
	end := today
	if due != nil {
		end = calendar.Min(end, *due)
	}
	return calendar.DaysInclusive(start, end)
}

func completedOn(stored, crossing *time.Time, today time.Time) *time.Time {
	switch {
	case stored != nil:
		d := calendar.Day(*stored)
		return &d
	case crossing != nil:
		return crossing
	default:
		return &today
	}
}

func onTrack(p GoalProgress, start time.Time, due *time.Time, today time.Time) bool {
	if due == nil || p.IsCompleted {
		return true
	}

	total := calendar.DaysBetween(start, *due)
	expected := 100.0
	if total > 0 {
		elapsed := min(max(calendar.DaysBetween(start, today), 0), total)
		expected = float64(elapsed) / float64(total) * 100
	}
	return p.Percentage >= OnTrackTolerance*expected
}
