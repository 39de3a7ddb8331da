package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrEmptyPatch   = errors.New("storage: patch touches no fields")
	ErrInvalidRange = errors.New("storage: invalid date range")
)

type Repository interface {
	GetCompletion(ctx context.Context, userID, day string) (DailyCompletion, error)
	UpsertCompletion(ctx context.Context, userID, day string, patch CompletionPatch) (DailyCompletion, error)
	ListCompletions(ctx context.Context, filter CompletionListFilter) ([]DailyCompletion, error)
	ListFullyCompletedDays(ctx context.Context, userID string) ([]string, error)

	GetSummary(ctx context.Context, userID string) (StreakSummary, error)
	UpsertSummary(ctx context.Context, in StreakSummary) error

	// WithTx runs fn against a repository bound to one transaction. The
	// transaction commits only if fn returns nil.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
