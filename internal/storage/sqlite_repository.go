package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db *sql.DB
	q  dbtx
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db, q: db}, nil
}

// OpenDB opens the database at path without touching its schema.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if _, inTx := r.q.(*sql.Tx); inTx {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&SQLiteRepository{db: r.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

const completionColumns = `user_id, day, protocol_done, constitution_done, keystone_done, keystone_text, fully_completed, created_at, updated_at`

func (r *SQLiteRepository) GetCompletion(ctx context.Context, userID, day string) (DailyCompletion, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+completionColumns+`
		FROM daily_completions WHERE user_id = ? AND day = ?`, userID, day)
	item, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DailyCompletion{}, ErrNotFound
		}
		return DailyCompletion{}, err
	}
	return item, nil
}

// UpsertCompletion writes only the columns named by patch in one statement.
// Concurrent writers touching different columns of the same day both land.
func (r *SQLiteRepository) UpsertCompletion(ctx context.Context, userID, day string, patch CompletionPatch) (DailyCompletion, error) {
	if patch.IsEmpty() {
		return DailyCompletion{}, ErrEmptyPatch
	}
	at := patch.At
	if at.IsZero() {
		at = time.Now()
	}
	row := r.q.QueryRowContext(ctx, `
		INSERT INTO daily_completions (user_id, day, protocol_done, constitution_done, keystone_done, keystone_text, created_at, updated_at)
		VALUES (?1, ?2, COALESCE(?3, 0), COALESCE(?4, 0), COALESCE(?5, 0), COALESCE(?6, ''), ?7, ?7)
		ON CONFLICT(user_id, day) DO UPDATE SET
			protocol_done = COALESCE(?3, protocol_done),
			constitution_done = COALESCE(?4, constitution_done),
			keystone_done = COALESCE(?5, keystone_done),
			keystone_text = COALESCE(?6, keystone_text),
			updated_at = ?7
		RETURNING `+completionColumns,
		userID, day, nullBool(patch.ProtocolDone), nullBool(patch.ConstitutionDone), nullBool(patch.KeystoneDone),
		nullString(patch.KeystoneText), mustTime(at),
	)
	return scanCompletion(row)
}

func (r *SQLiteRepository) ListCompletions(ctx context.Context, filter CompletionListFilter) ([]DailyCompletion, error) {
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, filter.From, filter.To)
	}
	query := `SELECT ` + completionColumns + ` FROM daily_completions`
	clauses := []string{"user_id = ?"}
	args := []any{filter.UserID}
	if filter.From != "" {
		clauses = append(clauses, "day >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clauses = append(clauses, "day <= ?")
		args = append(args, filter.To)
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += ` ORDER BY day ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyCompletion, 0)
	for rows.Next() {
		item, scanErr := scanCompletion(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListFullyCompletedDays(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT day FROM daily_completions
		WHERE user_id = ? AND fully_completed = 1
		ORDER BY day ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSummary(ctx context.Context, userID string) (StreakSummary, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT user_id, current_streak, longest_streak, total_completions, last_completed_date, updated_at
		FROM streak_summaries WHERE user_id = ?`, userID)
	item, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StreakSummary{}, ErrNotFound
		}
		return StreakSummary{}, err
	}
	return item, nil
}

// UpsertSummary replaces every aggregate column at once; longest_streak is
// additionally guarded so a stale writer can not lower it.
func (r *SQLiteRepository) UpsertSummary(ctx context.Context, in StreakSummary) error {
	at := in.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO streak_summaries (user_id, current_streak, longest_streak, total_completions, last_completed_date, updated_at)
		VALUES (?1, ?2, MAX(?2, ?3), ?4, ?5, ?6)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = ?2,
			longest_streak = MAX(longest_streak, ?2, ?3),
			total_completions = ?4,
			last_completed_date = ?5,
			updated_at = ?6`,
		in.UserID, in.CurrentStreak, in.LongestStreak, in.TotalCompletions, nullString(in.LastCompletedDate), mustTime(at),
	)
	return err
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolInt(*v)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompletion(s scanner) (DailyCompletion, error) {
	var out DailyCompletion
	var protocol, constitution, keystone, full int
	var created, updated string
	if err := s.Scan(&out.UserID, &out.Day, &protocol, &constitution, &keystone, &out.KeystoneText, &full, &created, &updated); err != nil {
		return DailyCompletion{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return DailyCompletion{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return DailyCompletion{}, err
	}
	out.ProtocolDone = protocol == 1
	out.ConstitutionDone = constitution == 1
	out.KeystoneDone = keystone == 1
	out.FullyCompleted = full == 1
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanSummary(s scanner) (StreakSummary, error) {
	var out StreakSummary
	var last sql.NullString
	var updated string
	if err := s.Scan(&out.UserID, &out.CurrentStreak, &out.LongestStreak, &out.TotalCompletions, &last, &updated); err != nil {
		return StreakSummary{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return StreakSummary{}, err
	}
	if last.Valid && last.String != "" {
		v := last.String
		out.LastCompletedDate = &v
	}
	out.UpdatedAt = updatedAt
	return out, nil
}
