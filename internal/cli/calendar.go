package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/commands"
	"github.com/sandeepkv93/ritualday/internal/views"
)

func newMonthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show a month grid of completions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ym commands.MonthArgs
			if len(args) == 1 {
				parsed, err := commands.ParseYearMonth(args[0])
				if err != nil {
					return err
				}
				ym = parsed
			}
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				today := a.svc.Today()
				if ym.Year == 0 {
					ym = commands.MonthArgs{Year: today.Year, Month: today.Month}
				}
				grid := a.svc.MonthGrid(ctx, ym.Year, ym.Month)
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderMonthGrid(grid, today))
				return nil
			})
		},
	}
}

func newLastCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "last [n]",
		Short: "Show the trailing n days, oldest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 0
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 || parsed > 366 {
					return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "last takes a day count between 1 and 366"}
				}
				n = parsed
			}
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if n == 0 {
					n = a.svc.TrailingDays()
				}
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderStrip(a.svc.Strip(ctx, n)))
				return nil
			})
		},
	}
}

func newWeekCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show Monday through today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderWeek(a.svc.CurrentWeek(ctx)))
				return nil
			})
		},
	}
}
