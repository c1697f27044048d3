package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sethvargo/go-password/password"
	"github.com/spf13/cobra"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/validation"
)

const generatedPasswordLength = 20

func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var pw string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Long: `Create a user account.

When --password is omitted a random password is generated and printed once.

Examples:
  habitgrid user create alice
  habitgrid user create alice --password s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			generated := false
			if pw == "" {
				var err error
				pw, err = password.Generate(generatedPasswordLength, 4, 2, false, false)
				if err != nil {
					return fmt.Errorf("generating password: %w", err)
				}
				generated = true
			}
			if err := validation.Credentials(username, pw); err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			hash, err := auth.HashPassword(pw)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			id, err := rt.store.CreateUser(ctx, username, hash)
			if err != nil {
				if errors.Is(err, store.ErrUsernameTaken) {
					return fmt.Errorf("user %q already exists", username)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created user %s (id %d)\n", username, id)
			if generated {
				fmt.Fprintf(out, "Password: %s\n", pw)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pw, "password", "p", "", "Password (generated when empty)")
	return cmd
}
