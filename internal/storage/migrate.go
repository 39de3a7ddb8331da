package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func MigrateUp(db *sql.DB) error {
	_, err := Migrate(db, Up)
	return err
}

func MigrateDown(db *sql.DB) error {
	_, err := Migrate(db, Down)
	return err
}

// Migrate applies every pending migration in dir order and reports how many
// ran. Each file runs in its own transaction together with its version row.
func Migrate(db *sql.DB, dir Direction) (int, error) {
	if dir != Up && dir != Down {
		return 0, fmt.Errorf("unknown migration direction %q", dir)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedSet(db)
	if err != nil {
		return 0, err
	}

	entries, err := fs.Glob(migrationFiles, "migrations/*."+string(dir)+".sql")
	if err != nil {
		return 0, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	if dir == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}

	ran := 0
	for _, name := range entries {
		version := migrationVersion(name)
		if applied[version] == (dir == Up) {
			continue
		}
		if err := runMigration(db, name, version, dir); err != nil {
			return ran, err
		}
		ran++
	}
	return ran, nil
}

// AppliedVersions lists applied migration versions, oldest first.
func AppliedVersions(db *sql.DB) ([]string, error) {
	applied, err := appliedSet(db)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(applied))
	for v := range applied {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

func runMigration(db *sql.DB, name, version string, dir Direction) error {
	sqlBytes, err := migrationFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if dir == Up {
		_, err = tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`, version, mustTime(time.Now()))
	} else {
		_, err = tx.Exec(`DELETE FROM schema_migrations WHERE version = ?`, version)
	}
	if err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

// migrationVersion maps "migrations/0001_name.up.sql" to "0001".
func migrationVersion(name string) string {
	base := path.Base(name)
	if i := strings.IndexByte(base, '_'); i > 0 {
		return base[:i]
	}
	return strings.SplitN(base, ".", 2)[0]
}
