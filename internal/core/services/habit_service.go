package services

import (
	"context"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
)

type HabitService struct {
	repo  domain.HabitRepository
	goals domain.GoalRepository
}

func NewHabitService(repo domain.HabitRepository, goals domain.GoalRepository) *HabitService {
	return &HabitService{
		repo:  repo,
		goals: goals,
	}
}

type CreateHabitInput struct {
	UserID         string
	Title          string
	Description    string
	Frequency      string
	FrequencyCount int
	OccurrenceDays []string
	StartDate      time.Time
}

type CreateGoalInput struct {
	UserID    string
	HabitID   string
	Title     string
	GoalType  string
	Target    float64
	StartDate time.Time
	DueDate   *time.Time
}

// Create validates the schedule strictly before storing the habit; a
// mismatched day list is rejected here rather than tolerated later.
func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	schedule, err := domain.NewHabitSchedule(input.Frequency, input.FrequencyCount, input.OccurrenceDays)
	if err != nil {
		return nil, err
	}

	start := input.StartDate
	if start.IsZero() {
		start = time.Now().UTC()
	}

	habit, err := domain.NewHabit(input.UserID, input.Title, schedule, start)
	if err != nil {
		return nil, err
	}
	habit.Description = input.Description

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) CreateGoal(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	habit, err := s.repo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != input.UserID {
		return nil, domain.ErrHabitNotFound
	}

	goalType, err := progress.ParseGoalType(input.GoalType)
	if err != nil {
		return nil, err
	}

	start := input.StartDate
	if start.IsZero() {
		start = habit.StartDate
	}

	goal, err := domain.NewGoal(input.UserID, habit.ID, input.Title, goalType, input.Target, start, input.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}
