package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

// Recomputer refreshes a habit's derived fields after its history changed.
type Recomputer interface {
	RecomputeHabit(ctx context.Context, habitID string) (workers.Outcome, error)
	Enqueue(habitID string) bool
}

type CheckInService struct {
	repo       domain.CheckInRepository
	habitRepo  domain.HabitRepository
	recomputer Recomputer
	inline     bool
	logger     *slog.Logger
}

// NewCheckInService wires check-in recording to recomputation. With inline
// set the habit is recomputed before Record returns; otherwise it is queued.
func NewCheckInService(repo domain.CheckInRepository, habitRepo domain.HabitRepository, recomputer Recomputer, inline bool, logger *slog.Logger) *CheckInService {
	return &CheckInService{
		repo:       repo,
		habitRepo:  habitRepo,
		recomputer: recomputer,
		inline:     inline,
		logger:     logger,
	}
}

type RecordCheckInInput struct {
	HabitID    string
	UserID     string
	Date       time.Time
	Completed  bool
	Value      *float64
	MoodRating *int
	Notes      string
}

// Record stores a check-in and triggers recomputation of its habit. A failed
// recompute is logged, not returned: the check-in itself is already stored.
func (s *CheckInService) Record(ctx context.Context, input RecordCheckInInput) (*domain.CheckIn, error) {
	c := domain.NewCheckIn(input.HabitID, input.UserID, input.Date, input.Completed)
	c.Value = input.Value
	c.MoodRating = input.MoodRating
	c.Notes = input.Notes

	if err := c.Validate(); err != nil {
		return nil, err
	}

	habit, err := s.habitRepo.GetByID(ctx, c.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != c.UserID {
		return nil, domain.ErrHabitNotFound
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.recompute(ctx, c.HabitID)
	return c, nil
}

func (s *CheckInService) recompute(ctx context.Context, habitID string) {
	if s.recomputer == nil {
		return
	}
	if !s.inline {
		s.recomputer.Enqueue(habitID)
		return
	}
	if _, err := s.recomputer.RecomputeHabit(ctx, habitID); err != nil {
		logging.For(ctx, s.logger, "checkin_service").ErrorContext(ctx, "inline recompute failed", "habit_id", habitID, "error", err)
	}
}
