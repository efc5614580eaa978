package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

var (
	_ domain.HabitRepository   = (*InMemoryHabitRepository)(nil)
	_ domain.CheckInRepository = (*InMemoryCheckInRepository)(nil)
	_ domain.GoalRepository    = (*InMemoryGoalRepository)(nil)
)

// InMemoryHabitRepository stores copies, so callers never share a row with
// the store. UpdateStreak holds the write lock while compute runs.
type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.ID]; exists {
		return domain.ErrHabitConflict
	}
	if habit.Version == 0 {
		habit.Version = 1
	}
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	clone := *habit
	return &clone, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID {
			clone := *h
			habits = append(habits, &clone)
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].ID < habits[j].ID
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []string{}
	for id, h := range r.store {
		if h.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *InMemoryHabitRepository) UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[id]
	if !ok {
		return streak.Result{}, domain.ErrHabitNotFound
	}

	res := compute(habit.LongestStreak)
	habit.ApplyStreak(res.Current, res.Longest)
	habit.Version++

	return streak.Result{Current: habit.CurrentStreak, Longest: habit.LongestStreak}, nil
}

type InMemoryCheckInRepository struct {
	byHabit map[string][]*domain.CheckIn

	mu sync.RWMutex
}

func NewInMemoryCheckInRepository() *InMemoryCheckInRepository {
	return &InMemoryCheckInRepository{
		byHabit: make(map[string][]*domain.CheckIn),
	}
}

func (r *InMemoryCheckInRepository) Create(ctx context.Context, c *domain.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byHabit[c.HabitID] {
		if existing.ID == c.ID {
			return domain.ErrCheckInConflict
		}
	}
	clone := *c
	r.byHabit[c.HabitID] = append(r.byHabit[c.HabitID], &clone)
	return nil
}

func (r *InMemoryCheckInRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := filterCheckIns(r.byHabit[habitID], func(c *domain.CheckIn) bool {
		return inRange(c.CheckInDate, from, to)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckInDate.After(out[j].CheckInDate)
	})
	return out, nil
}

func (r *InMemoryCheckInRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.CheckIn{}
	for _, rows := range r.byHabit {
		out = append(out, filterCheckIns(rows, func(c *domain.CheckIn) bool {
			return c.UserID == userID && inRange(c.CheckInDate, from, to)
		})...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckInDate.Before(out[j].CheckInDate)
	})
	return out, nil
}

func filterCheckIns(rows []*domain.CheckIn, keep func(*domain.CheckIn) bool) []*domain.CheckIn {
	out := []*domain.CheckIn{}
	for _, c := range rows {
		if keep(c) {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out
}

// inRange reports whether d falls in [from, to]; a zero from is unbounded.
func inRange(d, from, to time.Time) bool {
	d = calendar.Day(d)
	if !from.IsZero() && d.Before(calendar.Day(from)) {
		return false
	}
	return !d.After(calendar.Day(to))
}

type InMemoryGoalRepository struct {
	store map[string]*domain.Goal

	mu sync.RWMutex
}

func NewInMemoryGoalRepository() *InMemoryGoalRepository {
	return &InMemoryGoalRepository{
		store: make(map[string]*domain.Goal),
	}
}

func (r *InMemoryGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *g
	r.store[g.ID] = &clone
	return nil
}

func (r *InMemoryGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.store[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	clone := *g
	return &clone, nil
}

func (r *InMemoryGoalRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := []*domain.Goal{}
	for _, g := range r.store {
		if g.HabitID == habitID {
			clone := *g
			goals = append(goals, &clone)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (r *InMemoryGoalRepository) UpdateProgress(ctx context.Context, g *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[g.ID]
	if !ok {
		return domain.ErrGoalNotFound
	}
	stored.CurrentValue = g.CurrentValue
	stored.Status = g.Status
	stored.CompletedDate = g.CompletedDate
	stored.UpdatedAt = g.UpdatedAt
	return nil
}
