package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPromoteCmd(open backendFactory) *cobra.Command {
	return newAdminCmd(open, "promote", "Grant admin rights to a registered user", true)
}

func newDemoteCmd(open backendFactory) *cobra.Command {
	return newAdminCmd(open, "demote", "Revoke admin rights from a user", false)
}

func newAdminCmd(open backendFactory, use, short string, admin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				u, err := b.Users.SetAdmin(ctx, args[0], admin)
				if err != nil {
					return fmt.Errorf("%s %s: %w", use, args[0], err)
				}

				role := "user"
				if u.IsAdmin {
					role = "admin"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, role)
				return nil
			})
		},
	}
}
