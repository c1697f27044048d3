package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourorg/habitgrid/internal/store"
)

func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <username>",
		Short: "Show completed counts and current streaks for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.store.UserByUsername(ctx, args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				return err
			}

			stats, err := rt.tracker.Dashboard(ctx, user.ID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HABIT\tCOMPLETED\tSTREAK")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%d\n", s.Habit, s.Completed, s.Streak)
			}
			return w.Flush()
		},
	}
}
