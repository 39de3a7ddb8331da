package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/ritualday/internal/model"
)

const EnvPrefix = "RITUALDAY"

type RuntimeConfig struct {
	DBPath       string
	DraftDir     string
	DayBoundary  model.DayBoundary
	Timezone     string
	AuthTimeout  time.Duration
	TrailingDays int
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	StateBuffer  int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:       ".ritualday/ritualday.db",
		DraftDir:     ".ritualday/drafts",
		DayBoundary:  model.DayBoundaryLocal,
		Timezone:     "",
		AuthTimeout:  3 * time.Second,
		TrailingDays: 14,
		LogLevel:     "info",
		LogFile:      "",
		LogMaxSizeMB: 10,
		StateBuffer:  16,
	}
}

// RuntimeConfigFromEnv overlays RITUALDAY_* variables on base. Unparseable
// or non-positive numeric values keep the base value.
func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg, _ := load(base, "")
	return cfg
}

// Load layers defaults, the optional YAML file at path, then the
// environment, and validates the result.
func Load(path string) (RuntimeConfig, error) {
	cfg, err := load(DefaultRuntimeConfig(), path)
	if err != nil {
		return RuntimeConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func load(base RuntimeConfig, path string) (RuntimeConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", base.DBPath)
	v.SetDefault("draft_dir", base.DraftDir)
	v.SetDefault("day_boundary", string(base.DayBoundary))
	v.SetDefault("timezone", base.Timezone)
	v.SetDefault("auth_timeout", base.AuthTimeout.String())
	v.SetDefault("trailing_days", base.TrailingDays)
	v.SetDefault("log_level", base.LogLevel)
	v.SetDefault("log_file", base.LogFile)
	v.SetDefault("log_max_size_mb", base.LogMaxSizeMB)
	v.SetDefault("state_buffer", base.StateBuffer)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return base, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := base
	cfg.DBPath = strings.TrimSpace(v.GetString("db_path"))
	cfg.DraftDir = strings.TrimSpace(v.GetString("draft_dir"))
	cfg.DayBoundary = model.DayBoundary(strings.ToLower(strings.TrimSpace(v.GetString("day_boundary"))))
	cfg.Timezone = strings.TrimSpace(v.GetString("timezone"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("log_level")))
	cfg.LogFile = strings.TrimSpace(v.GetString("log_file"))
	if d := v.GetDuration("auth_timeout"); d > 0 {
		cfg.AuthTimeout = d
	}
	if n := v.GetInt("trailing_days"); n > 0 {
		cfg.TrailingDays = n
	}
	if n := v.GetInt("log_max_size_mb"); n > 0 {
		cfg.LogMaxSizeMB = n
	}
	if n := v.GetInt("state_buffer"); n > 0 {
		cfg.StateBuffer = n
	}
	return cfg, nil
}

func (c RuntimeConfig) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	if c.DraftDir == "" {
		return errors.New("config: draft_dir is required")
	}
	if !c.DayBoundary.IsValid() {
		return fmt.Errorf("config: invalid day_boundary %q", c.DayBoundary)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	if c.TrailingDays > 366 {
		return fmt.Errorf("config: trailing_days %d exceeds a year", c.TrailingDays)
	}
	return nil
}

// Location resolves Timezone; empty means the process local zone.
func (c RuntimeConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Clock returns the single clock every component derives "today" from.
func (c RuntimeConfig) Clock() (model.Clock, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return model.NewSystemClock(c.DayBoundary, loc), nil
}
