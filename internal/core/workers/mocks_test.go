package workers_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

type MockHabitStore struct {
	mock.Mock
}

func (m *MockHabitStore) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Habit), args.Error(1)
}

func (m *MockHabitStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// UpdateStreak feeds the configured stored longest streak into compute, the
// way a repository does under its row lock.
func (m *MockHabitStore) UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return streak.Result{}, err
	}
	return compute(args.Int(0)), nil
}

type MockCheckInStore struct {
	mock.Mock
}

func (m *MockCheckInStore) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CheckIn, error) {
	args := m.Called(ctx, habitID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckIn), args.Error(1)
}

type MockGoalStore struct {
	mock.Mock
}

func (m *MockGoalStore) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Goal, error) {
	args := m.Called(ctx, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Goal), args.Error(1)
}

func (m *MockGoalStore) UpdateProgress(ctx context.Context, g *domain.Goal) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []domain.HabitSnapshot
}

func (s *recordingSink) Put(ctx context.Context, snap domain.HabitSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snaps)
}

type chanSource struct {
	ids chan string
}

func (s chanSource) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-s.ids:
		return id, nil
	case <-time.After(timeout):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
