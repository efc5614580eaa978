package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/adapters/cache"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/adapters/queue"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/adapters/repository"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/config"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/services"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

// deps is everything a command needs, opened once per invocation.
type deps struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	habits    domain.HabitRepository
	checkins  domain.CheckInRepository
	goals     domain.GoalRepository
	snapshots *cache.SnapshotCache
	queue     *queue.RedisQueue

	migrate func(ctx context.Context) error
	closers []func() error
}

type opener func(ctx context.Context, envFile string) (*deps, error)

func openDeps(ctx context.Context, envFile string) (*deps, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	loc, err := cfg.Worker.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected", "db_driver", cfg.Database.Driver, "redis_db", cfg.Redis.DB)

	return &deps{
		cfg:       cfg,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
		habits:    repository.NewCachedHabitRepository(repository.NewPostgresHabitRepository(db), rdb, logger),
		checkins:  repository.NewPostgresCheckInRepository(db),
		goals:     repository.NewPostgresGoalRepository(db),
		snapshots: cache.NewSnapshotCache(rdb, cfg.Redis.SnapshotTTL),
		queue:     queue.NewRedisQueue(rdb, cfg.Redis.QueueKey),
		migrate: func(ctx context.Context) error {
			return repository.EnsureSchema(ctx, db)
		},
		closers: []func() error{rdb.Close, db.Close},
	}, nil
}

func (d *deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (d *deps) worker(extra ...workers.Option) *workers.RecomputeWorker {
	w := d.cfg.Worker
	opts := []workers.Option{
		workers.WithWorkers(w.Workers),
		workers.WithQueueSize(w.QueueSize),
		workers.WithWindowDays(w.WindowDays),
		workers.WithFullRebuild(w.FullRebuild),
		workers.WithPollTimeout(w.PollTimeout),
		workers.WithLocation(d.loc),
		workers.WithClock(d.now),
		workers.WithLogger(d.logger),
	}
	if d.snapshots != nil {
		opts = append(opts, workers.WithSnapshotSink(d.snapshots))
	}
	return workers.NewRecomputeWorker(d.habits, d.checkins, d.goals, append(opts, extra...)...)
}

func (d *deps) progress() *services.ProgressService {
	opts := []services.ProgressOption{
		services.WithNow(d.now),
		services.WithTimezone(d.loc),
		services.WithServiceLogger(d.logger),
	}
	if d.snapshots != nil {
		opts = append(opts, services.WithSnapshots(d.snapshots))
	}
	return services.NewProgressService(d.habits, d.checkins, d.goals, opts...)
}

// deferredRecomputer recomputes inline through the worker, or defers to the
// Redis queue drained by "serve".
type deferredRecomputer struct {
	*workers.RecomputeWorker
	queue  *queue.RedisQueue
	ctx    context.Context
	logger *slog.Logger
}

func (r *deferredRecomputer) Enqueue(habitID string) bool {
	if r.queue == nil {
		return false
	}
	if err := r.queue.Push(r.ctx, habitID); err != nil {
		r.logger.ErrorContext(r.ctx, "deferred recompute not queued", "habit_id", habitID, "error", err)
		return false
	}
	return true
}

func (d *deps) checkInService(ctx context.Context, inline bool) *services.CheckInService {
	rec := &deferredRecomputer{
		RecomputeWorker: d.worker(),
		queue:           d.queue,
		ctx:             ctx,
		logger:          d.logger,
	}
	return services.NewCheckInService(d.checkins, d.habits, rec, inline, d.logger)
}

func (d *deps) runMigrate(ctx context.Context) error {
	if d.migrate == nil {
		return fmt.Errorf("no database configured")
	}
	return d.migrate(ctx)
}
