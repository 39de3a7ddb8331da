package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/update"
)

func newTUICommand(opts *RootOptions) *cobra.Command {
	var altScreen bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the program, so logs go to a file
			a, err := openDevice(cmd, opts, true)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.openService(); err != nil {
				return err
			}
			return runProgram(cmd.Context(), a, altScreen)
		},
	}
	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "use the terminal alternate screen")
	return cmd
}

func runProgram(ctx context.Context, a *app, altScreen bool) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	a.logger.Info("tui starting", "today", a.svc.Today().String())
	program := tea.NewProgram(update.NewModel(a.svc), programOpts...)

	published, cancel := a.svc.Snapshots().Subscribe()
	defer cancel()
	go forwardSnapshots(published, program)

	_, err := program.Run()
	return err
}

type messageSender interface {
	Send(msg tea.Msg)
}

// forwardSnapshots nudges the program each time the shared snapshot is
// published until the subscription is cancelled.
func forwardSnapshots[T any](published <-chan T, program messageSender) {
	for range published {
		program.Send(update.SnapshotPublishedMsg{})
	}
}
