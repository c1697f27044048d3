package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/store"
)

var starterHabits = []string{"Exercise", "Read", "Meditate"}

// NewSeedCmd creates a demo account and a starter habit catalog.
func NewSeedCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user and starter habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()
			out := cmd.OutOrStdout()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			if _, err := rt.store.CreateUser(ctx, username, hash); err != nil {
				if !errors.Is(err, store.ErrUsernameTaken) {
					return err
				}
				fmt.Fprintf(out, "Seed: user '%s' already exists\n", username)
			} else {
				fmt.Fprintf(out, "Seed: created user '%s' with password '%s'\n", username, password)
			}

			for _, h := range starterHabits {
				added, err := rt.tracker.AddHabit(ctx, h)
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(out, "Seed: added habit '%s'\n", h)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "demo", "Demo username")
	cmd.Flags().StringVar(&password, "password", "demo1234", "Demo password")
	return cmd
}
