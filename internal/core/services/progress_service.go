package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/completion"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

// SnapshotReader serves snapshots published by the recompute worker.
type SnapshotReader interface {
	Get(ctx context.Context, habitID string) (*domain.HabitSnapshot, error)
}

type ProgressService struct {
	habits    domain.HabitRepository
	checkins  domain.CheckInRepository
	goals     domain.GoalRepository
	snapshots SnapshotReader
	now       func() time.Time
	loc       *time.Location
	logger    *slog.Logger
}

type ProgressOption func(*ProgressService)

func WithSnapshots(r SnapshotReader) ProgressOption {
	return func(s *ProgressService) { s.snapshots = r }
}

func WithNow(now func() time.Time) ProgressOption {
	return func(s *ProgressService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTimezone(loc *time.Location) ProgressOption {
	return func(s *ProgressService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithServiceLogger(logger *slog.Logger) ProgressOption {
	return func(s *ProgressService) { s.logger = logger }
}

func NewProgressService(habits domain.HabitRepository, checkins domain.CheckInRepository, goals domain.GoalRepository, opts ...ProgressOption) *ProgressService {
	s := &ProgressService{
		habits:   habits,
		checkins: checkins,
		goals:    goals,
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type HabitSummary struct {
	HabitID           string          `json:"habit_id"`
	Title             string          `json:"title"`
	Schedule          string          `json:"schedule"`
	AsOf              string          `json:"as_of"`
	Streak            streak.Result   `json:"streak"`
	WindowDays        int             `json:"window_days"`
	Rate              completion.Rate `json:"completion"`
	DueToday          bool            `json:"due_today"`
	RemainingInPeriod int             `json:"remaining_in_period"`
	FromSnapshot      bool            `json:"from_snapshot"`
}

type GoalReport struct {
	Goal     *domain.Goal          `json:"goal"`
	Progress progress.GoalProgress `json:"progress"`
}

func (s *ProgressService) today() time.Time {
	return calendar.Today(s.now(), s.loc)
}

// HabitSummary reports a habit's streak, its completion rate over the trailing
// windowDays and whether it is still due today. A fresh snapshot for the same
// day and window is served as is.
func (s *ProgressService) HabitSummary(ctx context.Context, habitID string, windowDays int) (summary *HabitSummary, err error) {
	defer domain.RecoverViolation(&err, "habit "+habitID)

	if windowDays < 1 {
		windowDays = 1
	}
	today := s.today()

	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	rule := habit.Rule()

	if snap := s.freshSnapshot(ctx, habitID, today, windowDays); snap != nil {
		return &HabitSummary{
			HabitID:           habit.ID,
			Title:             habit.Title,
			Schedule:          rule.String(),
			AsOf:              snap.AsOf,
			Streak:            streak.Result{Current: snap.CurrentStreak, Longest: snap.LongestStreak},
			WindowDays:        snap.WindowDays,
			Rate:              completion.Rate{Expected: snap.Expected, Actual: snap.Actual, Percentage: snap.CompletionRate},
			DueToday:          snap.DueToday,
			RemainingInPeriod: snap.Remaining,
			FromSnapshot:      true,
		}, nil
	}

	rows, err := s.checkins.ListByHabitID(ctx, habitID, time.Time{}, today)
	if err != nil {
		return nil, err
	}
	events := domain.Events(rows)
	counter := checkin.Counter{HabitID: habitID, Events: events}

	return &HabitSummary{
		HabitID:           habit.ID,
		Title:             habit.Title,
		Schedule:          rule.String(),
		AsOf:              calendar.Format(today),
		Streak:            streak.Compute(checkin.Completed(events), today, habit.LongestStreak),
		WindowDays:        windowDays,
		Rate:              completion.ComputeRate(rule, events, today.AddDate(0, 0, -(windowDays-1)), today),
		DueToday:          rule.IsDueToday(today, habitID, counter),
		RemainingInPeriod: rule.RemainingInPeriod(today, habitID, counter),
	}, nil
}

func (s *ProgressService) freshSnapshot(ctx context.Context, habitID string, today time.Time, windowDays int) *domain.HabitSnapshot {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Get(ctx, habitID)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			logging.For(ctx, s.logger, "progress_service").WarnContext(ctx, "snapshot read failed", "habit_id", habitID, "error", err)
		}
		return nil
	}
	if snap.AsOf != calendar.Format(today) || snap.WindowDays != windowDays {
		return nil
	}
	return snap
}

// GoalProgress projects one goal without persisting anything.
func (s *ProgressService) GoalProgress(ctx context.Context, goalID string) (report *GoalReport, err error) {
	defer domain.RecoverViolation(&err, "goal "+goalID)

	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	habit, err := s.habits.GetByID(ctx, goal.HabitID)
	if err != nil {
		return nil, err
	}
	proj, err := goal.Projection()
	if err != nil {
		return nil, err
	}

	today := s.today()
	rows, err := s.checkins.ListByHabitID(ctx, habit.ID, time.Time{}, today)
	if err != nil {
		return nil, err
	}

	return &GoalReport{
		Goal:     goal,
		Progress: progress.ComputeProgress(proj, habit.Rule(), domain.Events(rows), today),
	}, nil
}

// GetWeeklyStats reports, per habit of the user, the occurrences expected in
// [StartDate, EndDate] against those completed. Only the wall-clock dates of
// the bounds are used. The overall rate counts at most the expected number of
// completions per habit.
func (s *ProgressService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	startDate := calendar.Day(input.StartDate)
	endDate := calendar.Day(input.EndDate)

	habits, err := s.habits.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	rows, err := s.checkins.ListByUserIDAndDateRange(ctx, input.UserID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	eventsByHabit := make(map[string][]checkin.Event)
	for _, r := range rows {
		eventsByHabit[r.HabitID] = append(eventsByHabit[r.HabitID], r.Event())
	}

	stats := &domain.WeeklyStats{
		StartDate:   calendar.Format(startDate),
		EndDate:     calendar.Format(endDate),
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	totalExpected := 0
	totalActual := 0

	for _, h := range habits {
		events := eventsByHabit[h.ID]
		rate := completion.ComputeRate(h.Rule(), events, startDate, endDate)

		hStat := domain.HabitStat{
			HabitID:        h.ID,
			HabitTitle:     h.Title,
			Frequency:      h.Frequency,
			Expected:       rate.Expected,
			Actual:         rate.Actual,
			CompletionRate: rate.Percentage,
			DailyProgress:  dailyCounts(events, startDate, endDate),
		}

		totalExpected += rate.Expected
		totalActual += min(rate.Actual, rate.Expected)

		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	stats.OverallRate = completion.Percentage(totalActual, totalExpected)
	return stats, nil
}

func dailyCounts(events []checkin.Event, start, end time.Time) []int {
	out := make([]int, calendar.DaysInclusive(start, end))
	for _, e := range events {
		if !e.Completed {
			continue
		}
		i := calendar.DaysBetween(start, e.Date)
		if i >= 0 && i < len(out) {
			out[i]++
		}
	}
	return out
}
