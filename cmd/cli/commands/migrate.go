package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCmd applies pending schema migrations.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", rt.store.Dialect())
			return nil
		},
	}
}
