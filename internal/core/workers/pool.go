package workers

import (
	"context"
	"time"
)

// Start launches the background pool. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (w *RecomputeWorker) Start(ctx context.Context) {
	w.log(ctx).InfoContext(ctx, "recompute worker started", "workers", w.workers, "queue_size", w.queueSize)

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case id := <-w.jobs:
					w.release(id)
					w.process(ctx, id)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

func (w *RecomputeWorker) Wait() {
	w.wg.Wait()
	w.log(context.Background()).Info("recompute worker stopped")
}

// Enqueue schedules habitID for background recompute without blocking. An id
// already waiting in the queue is not queued twice. It reports false when the
// queue is full and the job was dropped.
func (w *RecomputeWorker) Enqueue(habitID string) bool {
	if w.offer(habitID) {
		return true
	}
	w.log(context.Background()).Warn("recompute queue full, dropping job", "habit_id", habitID)
	return false
}

func (w *RecomputeWorker) offer(habitID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pending[habitID]; ok {
		return true
	}
	select {
	case w.jobs <- habitID:
		w.pending[habitID] = struct{}{}
		return true
	default:
		return false
	}
}

// enqueueWait blocks until there is room in the queue or ctx ends.
func (w *RecomputeWorker) enqueueWait(ctx context.Context, habitID string) error {
	for !w.offer(habitID) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func (w *RecomputeWorker) release(habitID string) {
	w.mu.Lock()
	delete(w.pending, habitID)
	w.mu.Unlock()
}

func (w *RecomputeWorker) process(ctx context.Context, habitID string) {
	if _, err := w.RecomputeHabit(ctx, habitID); err != nil {
		w.log(ctx).ErrorContext(ctx, "background recompute failed", "habit_id", habitID, "error", err)
	}
}

// Consume moves habit ids from src into the pool until ctx is cancelled.
// Source errors are logged and retried after a pause.
func (w *RecomputeWorker) Consume(ctx context.Context, src Source) error {
	logger := w.log(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}

		id, err := src.Pop(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.ErrorContext(ctx, "queue pop failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if id == "" {
			continue
		}

		if err := w.enqueueWait(ctx, id); err != nil {
			return nil
		}
	}
}
