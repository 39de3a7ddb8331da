package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/storage"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the store schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			return withDevice(cmd, opts, func(ctx context.Context, a *app) error {
				if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
					return fmt.Errorf("create db dir: %w", err)
				}
				db, err := storage.OpenDB(a.cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()

				ran, err := storage.Migrate(db, storage.Direction(direction))
				if err != nil {
					return err
				}
				versions, err := storage.AppliedVersions(db)
				if err != nil {
					return err
				}
				a.logger.Info("migrated", "direction", direction, "ran", ran, "db", a.cfg.DBPath)
				fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: %d applied, schema at %s\n", direction, ran, schemaLabel(versions))
				return nil
			})
		},
	}
}

func schemaLabel(versions []string) string {
	if len(versions) == 0 {
		return "empty"
	}
	return versions[len(versions)-1]
}
