package workers_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
)

func stubHabit(f *fixture, id string) {
	f.habits.On("GetByID", mock.Anything, id).Return(dailyHabit(id), nil)
	f.checkins.On("ListByHabitID", mock.Anything, id, time.Time{}, jan(7)).Return(completedRows(id, 7), nil)
	f.habits.On("UpdateStreak", mock.Anything, id).Return(0, nil)
	f.goals.On("ListByHabitID", mock.Anything, id).Return([]*domain.Goal{}, nil)
}

func TestEnqueue_CoalescesAndDropsWhenFull(t *testing.T) {
	f := newFixture()
	w := f.worker(workers.WithQueueSize(1))

	assert.True(t, w.Enqueue("h1"))
	assert.True(t, w.Enqueue("h1"), "pending id is coalesced")
	assert.False(t, w.Enqueue("h2"), "full queue drops")
}

func TestStart_ProcessesQueuedHabits(t *testing.T) {
	f := newFixture()
	stubHabit(f, "h1")
	stubHabit(f, "h2")

	ctx, cancel := context.WithCancel(context.Background())
	w := f.worker(workers.WithWorkers(2))
	w.Start(ctx)

	require.True(t, w.Enqueue("h1"))
	require.True(t, w.Enqueue("h2"))

	assert.Eventually(t, func() bool { return f.sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()
}

func TestConsume_FeedsThePool(t *testing.T) {
	f := newFixture()
	stubHabit(f, "h1")

	ctx, cancel := context.WithCancel(context.Background())
	w := f.worker(workers.WithPollTimeout(20 * time.Millisecond))
	w.Start(ctx)

	src := chanSource{ids: make(chan string, 1)}
	src.ids <- "h1"

	done := make(chan error, 1)
	go func() { done <- w.Consume(ctx, src) }()

	assert.Eventually(t, func() bool { return f.sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not stop after cancel")
	}
	w.Wait()
}
