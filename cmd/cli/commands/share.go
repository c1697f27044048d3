package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
)

func NewShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage public share links",
	}
	cmd.AddCommand(newShareCreateCmd())
	cmd.AddCommand(newShareRevokeCmd())
	return cmd
}

func lookupUser(ctx context.Context, rt *runtime, username string) (models.User, error) {
	user, err := rt.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return user, fmt.Errorf("user %q not found", username)
	}
	return user, err
}

func shareBaseURL(rt *runtime) string {
	if rt.cfg.PublicURL != "" {
		return rt.cfg.PublicURL
	}
	return "http://localhost:" + rt.cfg.Port
}

func newShareCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <username>",
		Short: "Print the user's share URL, creating a link if none is active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := lookupUser(ctx, rt, args[0])
			if err != nil {
				return err
			}
			token, err := rt.tracker.ShareToken(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/share/%s\n", shareBaseURL(rt), token)
			return nil
		},
	}
}

func newShareRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <username>",
		Short: "Revoke every active share link of the user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := lookupUser(ctx, rt, args[0])
			if err != nil {
				return err
			}
			n, err := rt.tracker.RevokeShareTokens(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %d share link(s)\n", n)
			return nil
		},
	}
}
