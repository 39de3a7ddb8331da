package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/session"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <name>",
		Short: "Sign this device in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, opts, func(ctx context.Context, a *app) error {
				u, err := a.session.Login(strings.Join(args, " "))
				if err != nil {
					if errors.Is(err, session.ErrInvalidName) {
						return WrapExitError(ExitUsage, "login", err)
					}
					return err
				}
				a.logger.Info("signed in", "user", u.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign this device out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, opts, func(ctx context.Context, a *app) error {
				u, err := session.Resolve(ctx, a.session, a.cfg.AuthTimeout)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
}
