package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(open opener) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "recomputer",
		Short: "Habit streak, goal progress and snapshot recomputation",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	// withDeps opens the dependencies for one command run and closes them after.
	withDeps := func(run func(cmd *cobra.Command, args []string, d *deps) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			d, err := open(ctx, envFile)
			if err != nil {
				return err
			}
			defer d.Close()
			return run(cmd, args, d)
		}
	}

	root.AddCommand(
		newServeCmd(withDeps),
		newRecomputeCmd(withDeps),
		newEnqueueCmd(withDeps),
		newMigrateCmd(withDeps),
		newHabitCmd(withDeps),
		newGoalCmd(withDeps),
		newCheckInCmd(withDeps),
		newSummaryCmd(withDeps),
		newStatsCmd(withDeps),
	)
	return root
}

type runWithDeps func(run func(cmd *cobra.Command, args []string, d *deps) error) func(*cobra.Command, []string) error

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
