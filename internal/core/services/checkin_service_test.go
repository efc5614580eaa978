package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/services"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
)

func TestCheckInService_Record(t *testing.T) {
	ctx := context.Background()
	habit := &domain.Habit{ID: "h1", UserID: "u1", Frequency: "daily", StartDate: jan(1)}
	input := services.RecordCheckInInput{HabitID: "h1", UserID: "u1", Date: jan(5), Completed: true}

	t.Run("Inline mode recomputes before returning", func(t *testing.T) {
		repo := new(MockCheckInRepo)
		habits := new(MockHabitRepo)
		rec := new(MockRecomputer)

		habits.On("GetByID", ctx, "h1").Return(habit, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.CheckIn")).Return(nil)
		rec.On("RecomputeHabit", ctx, "h1").Return(workers.Outcome{HabitID: "h1"}, nil)

		svc := services.NewCheckInService(repo, habits, rec, true, nil)
		c, err := svc.Record(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, jan(5), c.CheckInDate)
		rec.AssertExpectations(t)
		rec.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("Queued mode only enqueues", func(t *testing.T) {
		repo := new(MockCheckInRepo)
		habits := new(MockHabitRepo)
		rec := new(MockRecomputer)

		habits.On("GetByID", ctx, "h1").Return(habit, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil)
		rec.On("Enqueue", "h1").Return(true)

		svc := services.NewCheckInService(repo, habits, rec, false, nil)
		_, err := svc.Record(ctx, input)

		require.NoError(t, err)
		rec.AssertExpectations(t)
		rec.AssertNotCalled(t, "RecomputeHabit", mock.Anything, mock.Anything)
	})

	t.Run("Failed inline recompute is logged not returned", func(t *testing.T) {
		repo := new(MockCheckInRepo)
		habits := new(MockHabitRepo)
		rec := new(MockRecomputer)
		var buf bytes.Buffer

		habits.On("GetByID", ctx, "h1").Return(habit, nil)
		repo.On("Create", ctx, mock.Anything).Return(nil)
		rec.On("RecomputeHabit", ctx, "h1").Return(workers.Outcome{}, domain.ErrContractViolation)

		svc := services.NewCheckInService(repo, habits, rec, true, slog.New(slog.NewTextHandler(&buf, nil)))
		_, err := svc.Record(ctx, input)

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "inline recompute failed")
		assert.Contains(t, buf.String(), "habit_id=h1")
	})

	t.Run("Invalid mood is rejected before lookup", func(t *testing.T) {
		habits := new(MockHabitRepo)
		svc := services.NewCheckInService(new(MockCheckInRepo), habits, nil, true, nil)

		bad := input
		bad.MoodRating = ptr(11)
		_, err := svc.Record(ctx, bad)

		assert.ErrorIs(t, err, domain.ErrInvalidMood)
		habits.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("Check-in on another user's habit", func(t *testing.T) {
		repo := new(MockCheckInRepo)
		habits := new(MockHabitRepo)
		habits.On("GetByID", ctx, "h1").Return(habit, nil)

		svc := services.NewCheckInService(repo, habits, nil, true, nil)
		other := input
		other.UserID = "u2"
		_, err := svc.Record(ctx, other)

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Storage failure skips recompute", func(t *testing.T) {
		repo := new(MockCheckInRepo)
		habits := new(MockHabitRepo)
		rec := new(MockRecomputer)

		habits.On("GetByID", ctx, "h1").Return(habit, nil)
		repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

		svc := services.NewCheckInService(repo, habits, rec, true, nil)
		_, err := svc.Record(ctx, input)

		assert.EqualError(t, err, "db down")
		rec.AssertNotCalled(t, "RecomputeHabit", mock.Anything, mock.Anything)
	})
}
