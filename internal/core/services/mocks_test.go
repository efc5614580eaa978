package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
)

func ptr[T any](v T) *T {
	return &v
}

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

type MockHabitRepo struct {
	mock.Mock
}

func (m *MockHabitRepo) Create(ctx context.Context, habit *domain.Habit) error {
	args := m.Called(ctx, habit)
	return args.Error(0)
}

func (m *MockHabitRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Habit), args.Error(1)
}

func (m *MockHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *MockHabitRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHabitRepo) UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return streak.Result{}, err
	}
	return compute(args.Int(0)), nil
}

type MockCheckInRepo struct {
	mock.Mock
}

func (m *MockCheckInRepo) Create(ctx context.Context, c *domain.CheckIn) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCheckInRepo) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CheckIn, error) {
	args := m.Called(ctx, habitID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckIn), args.Error(1)
}

func (m *MockCheckInRepo) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.CheckIn, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckIn), args.Error(1)
}

type MockGoalRepo struct {
	mock.Mock
}

func (m *MockGoalRepo) Create(ctx context.Context, g *domain.Goal) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGoalRepo) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Goal, error) {
	args := m.Called(ctx, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Goal), args.Error(1)
}

func (m *MockGoalRepo) UpdateProgress(ctx context.Context, g *domain.Goal) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

type MockRecomputer struct {
	mock.Mock
}

func (m *MockRecomputer) RecomputeHabit(ctx context.Context, habitID string) (workers.Outcome, error) {
	args := m.Called(ctx, habitID)
	return args.Get(0).(workers.Outcome), args.Error(1)
}

func (m *MockRecomputer) Enqueue(habitID string) bool {
	args := m.Called(habitID)
	return args.Bool(0)
}

type MockSnapshotReader struct {
	mock.Mock
}

func (m *MockSnapshotReader) Get(ctx context.Context, habitID string) (*domain.HabitSnapshot, error) {
	args := m.Called(ctx, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HabitSnapshot), args.Error(1)
}

func checkIn(habitID string, d time.Time, completed bool) *domain.CheckIn {
	return &domain.CheckIn{ID: habitID + d.Format("0102"), HabitID: habitID, UserID: "u1", CheckInDate: d, Completed: completed}
}
