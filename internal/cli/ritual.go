package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/commands"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/ritual"
	"github.com/sandeepkv93/ritualday/internal/views"
)

func newTodayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's checklist and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				writeSnapshot(cmd.OutOrStdout(), a.svc.Load(ctx))
				return nil
			})
		},
	}
}

func writeSnapshot(w io.Writer, snap ritual.Snapshot) {
	items := make([]views.ChecklistItem, 0, len(model.Categories))
	for _, c := range model.Categories {
		item := views.ChecklistItem{Category: c, Done: snap.Today.Done(c)}
		if c == model.CategoryKeystone {
			item.Detail = snap.Today.KeystoneText
		}
		items = append(items, item)
	}
	fmt.Fprintln(w, views.RenderTodayPanel(views.TodayPanelData{
		Day:       snap.Day.String(),
		Items:     items,
		Cursor:    -1,
		Priority:  snap.Draft.Priority,
		FromDraft: snap.Today.FromDraft,
	}))
	fmt.Fprintln(w)
	fmt.Fprintln(w, views.RenderStreakPanel(views.StreakPanelData{Summary: snap.Summary}))
	if strip := views.RenderStrip(snap.Strip); strip != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strip)
	}
	if !snap.Authenticated && !snap.Degraded {
		fmt.Fprintln(w, "\nnot signed in (run: ritualday login <name>)")
	}
}

// writeOutcome prints a one-line confirmation plus the streak after a write.
func writeOutcome(ctx context.Context, w io.Writer, a *app, message string) {
	sum := a.svc.GetUserStreaks(ctx)
	fmt.Fprintf(w, "%s (current %d, longest %d)\n", message, sum.CurrentStreak, sum.LongestStreak)
}

func newDoneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <protocol|constitution|keystone>",
		Short: "Mark a ritual done for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := commands.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.svc.SetDone(ctx, c); err != nil {
					return err
				}
				writeOutcome(ctx, cmd.OutOrStdout(), a, fmt.Sprintf("%s done", c))
				return nil
			})
		},
	}
}

func newUndoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <protocol|constitution|keystone>",
		Short: "Clear a ritual for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := commands.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.svc.SetUndone(ctx, c); err != nil {
					return err
				}
				writeOutcome(ctx, cmd.OutOrStdout(), a, fmt.Sprintf("%s cleared", c))
				return nil
			})
		},
	}
}

func newLockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <text>",
		Short: "Lock today's keystone with its text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.svc.LockKeystone(ctx, text); err != nil {
					return err
				}
				writeOutcome(ctx, cmd.OutOrStdout(), a, "keystone locked")
				return nil
			})
		},
	}
}

func newUnlockCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock today's keystone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.svc.UnlockKeystone(ctx); err != nil {
					return err
				}
				writeOutcome(ctx, cmd.OutOrStdout(), a, "keystone unlocked")
				return nil
			})
		},
	}
}

func newCompleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Record all three rituals done for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.svc.RecordFullCompletion(ctx, true, true, true); err != nil {
					return err
				}
				writeOutcome(ctx, cmd.OutOrStdout(), a, "day complete")
				return nil
			})
		},
	}
}

func newStreakCommand(opts *RootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show current and longest streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				sum := a.svc.GetUserStreaks(ctx)
				if plain {
					fmt.Fprintln(cmd.OutOrStdout(), views.RenderStreakPanel(views.StreakPanelData{Summary: sum}))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), views.RenderMarkdown(views.StreakReportMarkdown(sum)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print plain text instead of markdown")
	return cmd
}

func newPriorityCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <text>",
		Short: "Set today's priority in the local draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				st, err := a.svc.SetPriority(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "priority: %s\n", st.Priority)
				return nil
			})
		},
	}
}

func newStepCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "step <category> <n>",
		Short: "Toggle step n of a ritual in the local draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := commands.ParseCategory(args[0])
			if err != nil {
				return err
			}
			n, err := commands.ParseStepNumber(args[1])
			if err != nil {
				return err
			}
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				current, err := a.svc.Draft()
				if err != nil {
					return err
				}
				checked := true
				if steps := current.Steps[c]; n-1 < len(steps) {
					checked = !steps[n-1]
				}
				if _, err := a.svc.SetStep(ctx, c, n-1, checked); err != nil {
					return err
				}
				state := "unchecked"
				if checked {
					state = "checked"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s step %d %s\n", c, n, state)
				return nil
			})
		},
	}
}

func newAckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ack <name>",
		Short: "Record a local acknowledgement for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, a *app) error {
				if _, err := a.svc.Ack(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "acknowledged %s\n", args[0])
				return nil
			})
		},
	}
}
