package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/services"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/logging"
)

// parseOptionalDate returns the zero time for an empty flag.
func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return calendar.ParseDate(s)
}

func newHabitCmd(withDeps runWithDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
	}

	var (
		in    services.CreateHabitInput
		start string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a habit",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			var err error
			if in.StartDate, err = parseOptionalDate(start); err != nil {
				return err
			}
			if in.StartDate.IsZero() {
				in.StartDate = calendar.Today(d.now(), d.loc)
			}

			habit, err := services.NewHabitService(d.habits, d.goals).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), habit)
		}),
	}
	add.Flags().StringVar(&in.UserID, "user", "", "owner user id")
	add.Flags().StringVar(&in.Title, "title", "", "habit title")
	add.Flags().StringVar(&in.Description, "description", "", "habit description")
	add.Flags().StringVar(&in.Frequency, "frequency", "daily", "daily, weekly, monthly or custom")
	add.Flags().IntVar(&in.FrequencyCount, "count", 1, "occurrences required per period")
	add.Flags().StringSliceVar(&in.OccurrenceDays, "days", nil, "weekday names (weekly) or days of month (monthly)")
	add.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD (default today)")
	_ = add.MarkFlagRequired("user")
	_ = add.MarkFlagRequired("title")

	cmd.AddCommand(add)
	return cmd
}

func newGoalCmd(withDeps runWithDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals and inspect their progress",
	}

	var (
		in         services.CreateGoalInput
		start, due string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a goal on a habit",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			var err error
			if in.StartDate, err = parseOptionalDate(start); err != nil {
				return err
			}
			dueDate, err := parseOptionalDate(due)
			if err != nil {
				return err
			}
			if !dueDate.IsZero() {
				in.DueDate = &dueDate
			}

			goal, err := services.NewHabitService(d.habits, d.goals).CreateGoal(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), goal)
		}),
	}
	add.Flags().StringVar(&in.UserID, "user", "", "owner user id")
	add.Flags().StringVar(&in.HabitID, "habit", "", "habit id")
	add.Flags().StringVar(&in.Title, "title", "", "goal title")
	add.Flags().StringVar(&in.GoalType, "type", "count", "count, duration, rate or streak")
	add.Flags().Float64Var(&in.Target, "target", 0, "target value")
	add.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD (default habit start)")
	add.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	_ = add.MarkFlagRequired("user")
	_ = add.MarkFlagRequired("habit")
	_ = add.MarkFlagRequired("title")

	show := &cobra.Command{
		Use:   "show goal-id",
		Short: "Project a goal's progress as of today",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			report, err := d.progress().GoalProgress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		}),
	}

	cmd.AddCommand(add, show)
	return cmd
}

func newCheckInCmd(withDeps runWithDeps) *cobra.Command {
	var (
		in       services.RecordCheckInInput
		date     string
		skipped  bool
		deferred bool
		value    float64
		mood     int
	)

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record a check-in and recompute its habit",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			ctx := logging.ContextWithLogger(cmd.Context(), d.logger)

			var err error
			if in.Date, err = parseOptionalDate(date); err != nil {
				return err
			}
			if in.Date.IsZero() {
				in.Date = calendar.Today(d.now(), d.loc)
			}
			in.Completed = !skipped
			if cmd.Flags().Changed("value") {
				in.Value = &value
			}
			if cmd.Flags().Changed("mood") {
				in.MoodRating = &mood
			}

			c, err := d.checkInService(ctx, !deferred).Record(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}

	cmd.Flags().StringVar(&in.UserID, "user", "", "owner user id")
	cmd.Flags().StringVar(&in.HabitID, "habit", "", "habit id")
	cmd.Flags().StringVar(&date, "date", "", "check-in date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&skipped, "skipped", false, "record the day as not completed")
	cmd.Flags().Float64Var(&value, "value", 0, "measured value, e.g. km or pages")
	cmd.Flags().IntVar(&mood, "mood", 0, "mood rating 1-10")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	cmd.Flags().BoolVar(&deferred, "defer", false, "queue the recompute for the serve process")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("habit")
	return cmd
}
