package main

import (
	"github.com/spf13/cobra"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
)

func newSummaryCmd(withDeps runWithDeps) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "summary habit-id",
		Short: "Show a habit's streak, completion rate and due status",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if window <= 0 {
				window = d.cfg.Worker.WindowDays
			}
			s, err := d.progress().HabitSummary(cmd.Context(), args[0], window)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		}),
	}

	cmd.Flags().IntVar(&window, "window", 0, "trailing days for the completion rate (default WORKER_WINDOW_DAYS)")
	return cmd
}

func newStatsCmd(withDeps runWithDeps) *cobra.Command {
	var userID, from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-habit completion for a user over a date range (default this week)",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, d *deps) error {
			today := calendar.Today(d.now(), d.loc)
			input := domain.StatsInput{
				UserID:    userID,
				StartDate: calendar.StartOfWeek(today),
				EndDate:   calendar.EndOfWeek(today),
			}

			var err error
			if from != "" {
				if input.StartDate, err = calendar.ParseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if input.EndDate, err = calendar.ParseDate(to); err != nil {
					return err
				}
			}

			stats, err := d.progress().GetWeeklyStats(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		}),
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
