package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/completion"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/recurrence"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

type HabitStore interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error)
}

type CheckInStore interface {
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CheckIn, error)
}

type GoalStore interface {
	ListByHabitID(ctx context.Context, habitID string) ([]*domain.Goal, error)
	UpdateProgress(ctx context.Context, g *domain.Goal) error
}

// SnapshotSink receives the snapshot of every successful recompute.
type SnapshotSink interface {
	Put(ctx context.Context, snap domain.HabitSnapshot) error
}

// Source yields habit ids from a deferred queue. Pop returns an empty id when
// nothing arrived within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
}

type Outcome struct {
	HabitID      string
	Streak       streak.Result
	GoalsUpdated int
	Snapshot     domain.HabitSnapshot
}

type BatchReport struct {
	RunID     string
	Succeeded []string
	Failed    map[string]error
}

type RecomputeWorker struct {
	habits   HabitStore
	checkins CheckInStore
	goals    GoalStore
	sink     SnapshotSink

	now         func() time.Time
	loc         *time.Location
	logger      *slog.Logger
	workers     int
	queueSize   int
	windowDays  int
	fullRebuild bool
	pollTimeout time.Duration

	jobs    chan string
	mu      sync.Mutex
	pending map[string]struct{}
	wg      sync.WaitGroup
}

type Option func(*RecomputeWorker)

func WithWorkers(n int) Option {
	return func(w *RecomputeWorker) {
		if n > 0 {
			w.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(w *RecomputeWorker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *RecomputeWorker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLocation sets the timezone in which "today" is observed.
func WithLocation(loc *time.Location) Option {
	return func(w *RecomputeWorker) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *RecomputeWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWindowDays sets the trailing window used for the snapshot's completion rate.
func WithWindowDays(n int) Option {
	return func(w *RecomputeWorker) {
		if n > 0 {
			w.windowDays = n
		}
	}
}

// WithFullRebuild seeds the stored longest streak with the longest run found
// in the whole history, for use after bulk imports.
func WithFullRebuild(on bool) Option {
	return func(w *RecomputeWorker) {
		w.fullRebuild = on
	}
}

func WithSnapshotSink(sink SnapshotSink) Option {
	return func(w *RecomputeWorker) {
		w.sink = sink
	}
}

func WithPollTimeout(d time.Duration) Option {
	return func(w *RecomputeWorker) {
		if d > 0 {
			w.pollTimeout = d
		}
	}
}

func NewRecomputeWorker(habits HabitStore, checkins CheckInStore, goals GoalStore, opts ...Option) *RecomputeWorker {
	w := &RecomputeWorker{
		habits:      habits,
		checkins:    checkins,
		goals:       goals,
		now:         time.Now,
		loc:         time.UTC,
		workers:     4,
		queueSize:   100,
		windowDays:  30,
		pollTimeout: 5 * time.Second,
		pending:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.jobs = make(chan string, w.queueSize)
	return w
}

func (w *RecomputeWorker) log(ctx context.Context) *slog.Logger {
	return logging.For(ctx, w.logger, "recompute_worker")
}

// Today is the calendar date the worker computes against.
func (w *RecomputeWorker) Today() time.Time {
	return calendar.Today(w.now(), w.loc)
}

// RecomputeHabit recomputes one habit inline: its streak, stored under the
// habit's row lock, every goal linked to it, and its snapshot. Engine panics
// are returned as errors wrapping domain.ErrContractViolation.
func (w *RecomputeWorker) RecomputeHabit(ctx context.Context, habitID string) (out Outcome, err error) {
	defer domain.RecoverViolation(&err, "habit "+habitID)

	today := w.Today()

	habit, err := w.habits.GetByID(ctx, habitID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load habit %s: %w", habitID, err)
	}

	rows, err := w.checkins.ListByHabitID(ctx, habitID, time.Time{}, today)
	if err != nil {
		return Outcome{}, fmt.Errorf("load check-ins for %s: %w", habitID, err)
	}
	events := domain.Events(rows)
	completed := checkin.Completed(events)

	result, err := w.habits.UpdateStreak(ctx, habitID, func(previousLongest int) streak.Result {
		if w.fullRebuild {
			previousLongest = max(previousLongest, streak.LongestRun(completed))
		}
		return streak.Compute(completed, today, previousLongest)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("store streak for %s: %w", habitID, err)
	}

	out = Outcome{HabitID: habitID, Streak: result}
	rule := habit.Rule()

	updated, err := w.recomputeGoals(ctx, habitID, rule, events, today)
	out.GoalsUpdated = updated
	if err != nil {
		return out, err
	}

	out.Snapshot = w.snapshot(habitID, rule, events, result, today)
	if w.sink != nil {
		if err := w.sink.Put(ctx, out.Snapshot); err != nil {
			w.log(ctx).WarnContext(ctx, "snapshot publish failed", "habit_id", habitID, "error", err)
		}
	}

	w.log(ctx).DebugContext(ctx, "habit recomputed",
		"habit_id", habitID,
		"current_streak", result.Current,
		"longest_streak", result.Longest,
		"goals_updated", updated,
	)
	return out, nil
}

func (w *RecomputeWorker) recomputeGoals(ctx context.Context, habitID string, rule recurrence.Rule, events []checkin.Event, today time.Time) (int, error) {
	goals, err := w.goals.ListByHabitID(ctx, habitID)
	if err != nil {
		return 0, fmt.Errorf("load goals for %s: %w", habitID, err)
	}

	updated := 0
	for _, g := range goals {
		proj, err := g.Projection()
		if err != nil {
			w.log(ctx).WarnContext(ctx, "skipping goal with unreadable state", "goal_id", g.ID, "error", err)
			continue
		}
		// Abandoned goals are frozen at the value they had when abandoned.
		if proj.Status == progress.StatusAbandoned {
			continue
		}

		p := progress.ComputeProgress(proj, rule, events, today)
		if !g.Apply(p) {
			continue
		}
		if err := w.goals.UpdateProgress(ctx, g); err != nil {
			return updated, fmt.Errorf("store goal %s: %w", g.ID, err)
		}
		updated++
	}
	return updated, nil
}

func (w *RecomputeWorker) snapshot(habitID string, rule recurrence.Rule, events []checkin.Event, s streak.Result, today time.Time) domain.HabitSnapshot {
	from := today.AddDate(0, 0, -(w.windowDays - 1))
	rate := completion.ComputeRate(rule, events, from, today)
	counter := checkin.Counter{HabitID: habitID, Events: events}

	return domain.HabitSnapshot{
		HabitID:        habitID,
		AsOf:           calendar.Format(today),
		CurrentStreak:  s.Current,
		LongestStreak:  s.Longest,
		WindowDays:     w.windowDays,
		Expected:       rate.Expected,
		Actual:         rate.Actual,
		CompletionRate: rate.Percentage,
		DueToday:       rule.IsDueToday(today, habitID, counter),
		Remaining:      rule.RemainingInPeriod(today, habitID, counter),
		ComputedAt:     w.now().UTC(),
	}
}

// RecomputeMany recomputes habitIDs with at most the configured number of
// habits in flight. Duplicate ids are processed once. Per-habit failures are
// collected in the report; the error is non-nil only when ctx ends first.
func (w *RecomputeWorker) RecomputeMany(ctx context.Context, habitIDs []string) (*BatchReport, error) {
	report := &BatchReport{
		RunID:  uuid.NewString(),
		Failed: make(map[string]error),
	}
	logger := w.log(ctx).With("run_id", report.RunID)
	start := time.Now()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(w.workers)

	for _, id := range unique(habitIDs) {
		if ctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			_, err := w.RecomputeHabit(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
				logger.ErrorContext(ctx, "recompute failed", "habit_id", id, "error", err)
				return nil
			}
			report.Succeeded = append(report.Succeeded, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Succeeded)
	logger.InfoContext(ctx, "batch recompute finished",
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"duration", time.Since(start),
	)
	return report, ctx.Err()
}

// RecomputeAll recomputes every active habit.
func (w *RecomputeWorker) RecomputeAll(ctx context.Context) (*BatchReport, error) {
	ids, err := w.habits.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active habits: %w", err)
	}
	return w.RecomputeMany(ctx, ids)
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
