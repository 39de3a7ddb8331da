package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/ritualday/internal/config"
	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/logging"
	"github.com/sandeepkv93/ritualday/internal/ritual"
	"github.com/sandeepkv93/ritualday/internal/session"
	"github.com/sandeepkv93/ritualday/internal/storage"
)

// app is the per-invocation object graph.
type app struct {
	cfg     config.RuntimeConfig
	logger  *slog.Logger
	kv      *draft.DiskKV
	session *session.Local
	repo    *storage.SQLiteRepository
	svc     *ritual.Service
	closers []io.Closer
}

// openDevice loads config and logging and opens the device KV. With
// logToFile and no log_file configured, logs go next to the database.
func openDevice(cmd *cobra.Command, opts *RootOptions, logToFile bool) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitUsage, "load config", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if cfg.LogFile == "" && logToFile {
		cfg.LogFile = filepath.Join(filepath.Dir(cfg.DBPath), "ritualday.log")
	}

	logger, closer, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, WrapExitError(ExitUsage, "configure logging", err)
	}

	if err := os.MkdirAll(cfg.DraftDir, 0o755); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	kv := draft.NewDiskKV(cfg.DraftDir)
	return &app{
		cfg:     cfg,
		logger:  logger,
		kv:      kv,
		session: session.NewLocal(kv),
		closers: []io.Closer{closer},
	}, nil
}

// openService adds the authoritative store and the ritual service.
func (a *app) openService() error {
	if dir := filepath.Dir(a.cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	repo, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return err
	}
	a.repo = repo
	a.closers = append([]io.Closer{repo}, a.closers...)

	clock, err := a.cfg.Clock()
	if err != nil {
		return err
	}
	svc, err := ritual.NewService(ritual.Options{
		Repo:         repo,
		Drafts:       draft.NewStore(a.kv, clock),
		Auth:         a.session,
		Clock:        clock,
		AuthTimeout:  a.cfg.AuthTimeout,
		TrailingDays: a.cfg.TrailingDays,
		StateBuffer:  a.cfg.StateBuffer,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}
	a.svc = svc
	a.logger.Debug("service ready", "db", a.cfg.DBPath, "drafts", a.cfg.DraftDir, "day_boundary", a.cfg.DayBoundary)
	return nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withService runs fn against a fully opened app and maps failures onto the
// exit-code taxonomy.
func withService(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openDevice(cmd, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.openService(); err != nil {
		return err
	}
	if err := fn(cmd.Context(), a); err != nil {
		return describe(err)
	}
	return nil
}

func withDevice(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openDevice(cmd, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
