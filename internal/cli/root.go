// Package cli wires the ritualday commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ritualday",
		Short: "Track the three daily rituals and keep the streak",
		Long: `ritualday records protocol, constitution and keystone completions for
each calendar day and keeps current and longest streaks.

Settings come from an optional YAML file (--config) and RITUALDAY_* environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(newTodayCommand(opts))
	cmd.AddCommand(newDoneCommand(opts))
	cmd.AddCommand(newUndoCommand(opts))
	cmd.AddCommand(newLockCommand(opts))
	cmd.AddCommand(newUnlockCommand(opts))
	cmd.AddCommand(newCompleteCommand(opts))
	cmd.AddCommand(newStreakCommand(opts))
	cmd.AddCommand(newMonthCommand(opts))
	cmd.AddCommand(newLastCommand(opts))
	cmd.AddCommand(newWeekCommand(opts))
	cmd.AddCommand(newPriorityCommand(opts))
	cmd.AddCommand(newStepCommand(opts))
	cmd.AddCommand(newAckCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newTUICommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}
