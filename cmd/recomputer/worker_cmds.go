package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/workers"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

func newServeCmd(withDeps runWithDeps) *cobra.Command {
	var (
		migrate bool
		sweep   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recompute pool, draining the Redis queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			ctx := logging.ContextWithLogger(cmd.Context(), d.logger)

			if migrate {
				if err := d.runMigrate(ctx); err != nil {
					return err
				}
			}

			w := d.worker()
			w.Start(ctx)

			if sweep > 0 {
				go sweepLoop(ctx, w, sweep)
			}

			var err error
			if d.queue != nil {
				err = w.Consume(ctx, d.queue)
			} else {
				<-ctx.Done()
			}
			w.Wait()
			return err
		}),
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	cmd.Flags().DurationVar(&sweep, "sweep", 0, "recompute every active habit at this interval (0 disables)")
	return cmd
}

// sweepLoop recomputes every active habit on each tick so streaks break on
// days nobody checks in.
func sweepLoop(ctx context.Context, w *workers.RecomputeWorker, every time.Duration) {
	logger := logging.For(ctx, nil, "sweep")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := w.RecomputeAll(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "sweep failed", "error", err)
				continue
			}
			logger.InfoContext(ctx, "sweep finished", "run_id", report.RunID, "succeeded", len(report.Succeeded), "failed", len(report.Failed))
		}
	}
}

func newRecomputeCmd(withDeps runWithDeps) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "recompute [habit-id...]",
		Short: "Recompute the given habits, or every active habit with --all",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if all == (len(args) > 0) {
				return errors.New("pass habit ids or --all, not both")
			}

			ctx := logging.ContextWithLogger(cmd.Context(), d.logger)
			w := d.worker()

			var (
				report *workers.BatchReport
				err    error
			)
			if all {
				report, err = w.RecomputeAll(ctx)
			} else {
				report, err = w.RecomputeMany(ctx, args)
			}
			if err != nil {
				return err
			}
			return printReport(cmd, report)
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "recompute every active habit")
	return cmd
}

func printReport(cmd *cobra.Command, report *workers.BatchReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d succeeded, %d failed\n", report.RunID, len(report.Succeeded), len(report.Failed))

	failed := make([]string, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(out, "  %s: %v\n", id, report.Failed[id])
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d habits failed to recompute", len(failed))
	}
	return nil
}

func newEnqueueCmd(withDeps runWithDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue habit-id...",
		Short: "Queue habits for the serve process to recompute",
		Args:  cobra.MinimumNArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if d.queue == nil {
				return errors.New("no queue configured")
			}
			if err := d.queue.Push(cmd.Context(), args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d habits\n", len(args))
			return nil
		}),
	}
}

func newMigrateCmd(withDeps runWithDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the habits, check_ins and goals tables when missing",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			if err := d.runMigrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}),
	}
}
