// Package ritual records daily sub-task completions and keeps the per-user
// streak aggregate consistent with the record set.
package ritual

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/session"
	"github.com/sandeepkv93/ritualday/internal/state"
	"github.com/sandeepkv93/ritualday/internal/storage"
	"github.com/sandeepkv93/ritualday/internal/streak"
)

const DefaultTrailingDays = 14

type Options struct {
	Repo         storage.Repository
	Drafts       *draft.Store
	Auth         session.Authenticator
	Clock        model.Clock
	AuthTimeout  time.Duration
	TrailingDays int
	StateBuffer  int
	Logger       *slog.Logger
}

type Service struct {
	repo         storage.Repository
	drafts       *draft.Store
	auth         session.Authenticator
	clock        model.Clock
	authTimeout  time.Duration
	trailingDays int
	logger       *slog.Logger

	snapshots *state.Container[Snapshot]

	// writeMu sequences local writers so the transition check and the
	// summary recompute of one write never interleave with another.
	writeMu sync.Mutex
	flight  singleflight.Group
}

func NewService(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, errors.New("ritual: repository is required")
	}
	if opts.Drafts == nil {
		return nil, errors.New("ritual: draft store is required")
	}
	if opts.Clock == nil {
		opts.Clock = model.NewSystemClock(model.DayBoundaryLocal, time.Local)
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = session.DefaultTimeout
	}
	if opts.TrailingDays <= 0 {
		opts.TrailingDays = DefaultTrailingDays
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:         opts.Repo,
		drafts:       opts.Drafts,
		auth:         opts.Auth,
		clock:        opts.Clock,
		authTimeout:  opts.AuthTimeout,
		trailingDays: opts.TrailingDays,
		logger:       opts.Logger,
		snapshots:    state.New(Snapshot{}, opts.StateBuffer),
	}, nil
}

func (s *Service) Today() model.Date {
	return s.clock.Today()
}

func (s *Service) TrailingDays() int {
	return s.trailingDays
}

func (s *Service) user(ctx context.Context) (session.User, error) {
	return session.Resolve(ctx, s.auth, s.authTimeout)
}

func (s *Service) SetProtocolDone(ctx context.Context) error {
	return s.SetDone(ctx, model.CategoryProtocol)
}

func (s *Service) SetProtocolUndone(ctx context.Context) error {
	return s.SetUndone(ctx, model.CategoryProtocol)
}

func (s *Service) SetConstitutionDone(ctx context.Context) error {
	return s.SetDone(ctx, model.CategoryConstitution)
}

func (s *Service) SetConstitutionUndone(ctx context.Context) error {
	return s.SetUndone(ctx, model.CategoryConstitution)
}

// SetDone marks c done for today. Keystone uses the lock text already in the
// draft; without one it fails with ErrEmptyKeystone.
func (s *Service) SetDone(ctx context.Context, c model.Category) error {
	if c == model.CategoryKeystone {
		st, err := s.drafts.Load()
		if err != nil {
			return err
		}
		return s.LockKeystone(ctx, st.KeystoneText)
	}
	if !c.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, c)
	}
	return s.write(ctx, c, true, nil)
}

// SetUndone clears c for today only. Longest streak is never lowered.
func (s *Service) SetUndone(ctx context.Context, c model.Category) error {
	if c == model.CategoryKeystone {
		return s.UnlockKeystone(ctx)
	}
	if !c.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, c)
	}
	return s.write(ctx, c, false, nil)
}

func (s *Service) LockKeystone(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyKeystone
	}
	if _, err := s.drafts.SetKeystoneText(text); err != nil {
		s.logger.Warn("draft keystone text not saved", "error", err)
	}
	return s.write(ctx, model.CategoryKeystone, true, &text)
}

func (s *Service) UnlockKeystone(ctx context.Context) error {
	empty := ""
	if _, err := s.drafts.SetKeystoneText(empty); err != nil {
		s.logger.Warn("draft keystone text not cleared", "error", err)
	}
	return s.write(ctx, model.CategoryKeystone, false, &empty)
}

// write records the optimistic draft flag, then applies the field-scoped
// upsert. The draft keeps its value when the remote write fails.
func (s *Service) write(ctx context.Context, c model.Category, done bool, keystoneText *string) error {
	if _, err := s.drafts.SetDone(c, done); err != nil {
		s.logger.Warn("draft flag not saved", "category", c, "error", err)
	}
	u, err := s.user(ctx)
	if err != nil {
		return err
	}

	today := s.clock.Today()
	patch := storage.CompletionPatch{KeystoneText: keystoneText, At: s.clock.Now()}
	switch c {
	case model.CategoryProtocol:
		patch.ProtocolDone = &done
	case model.CategoryConstitution:
		patch.ConstitutionDone = &done
	case model.CategoryKeystone:
		patch.KeystoneDone = &done
	}

	var row storage.DailyCompletion
	var transitioned bool
	err = s.inTx(ctx, func(tx storage.Repository) error {
		wasFull, err := fullyCompleted(ctx, tx, u.ID, today)
		if err != nil {
			return err
		}
		row, err = tx.UpsertCompletion(ctx, u.ID, today.String(), patch)
		if err != nil {
			return err
		}
		transitioned = wasFull != row.FullyCompleted
		if !transitioned {
			return nil
		}
		_, err = s.recompute(ctx, tx, u.ID, today)
		return err
	})
	if err != nil {
		s.logger.Error("completion write failed", "user", u.ID, "day", today, "category", c, "error", err)
		return err
	}
	s.logger.Info("completion recorded",
		"user", u.ID,
		"day", today,
		"category", c,
		"done", done,
		"fully_completed", row.FullyCompleted,
		"recomputed", transitioned,
	)
	s.Refresh(ctx)
	return nil
}

// RecordFullCompletion records all three flags at once. It is a no-op unless
// every flag is true, and a second call for an already completed day only
// re-derives the summary.
func (s *Service) RecordFullCompletion(ctx context.Context, protocol, constitution, keystone bool) error {
	if !protocol || !constitution || !keystone {
		return nil
	}
	var text string
	if st, err := s.drafts.Load(); err == nil {
		text = strings.TrimSpace(st.KeystoneText)
	}
	for _, c := range model.Categories {
		if c == model.CategoryKeystone && text == "" {
			// the stored lock text decides this one
			continue
		}
		if _, err := s.drafts.SetDone(c, true); err != nil {
			s.logger.Warn("draft flag not saved", "category", c, "error", err)
		}
	}
	u, err := s.user(ctx)
	if err != nil {
		return err
	}
	today := s.clock.Today()

	key := u.ID + "/" + today.String()
	_, err, shared := s.flight.Do(key, func() (any, error) {
		return nil, s.recordFull(ctx, u.ID, today, text)
	})
	if err != nil {
		s.logger.Error("full completion failed", "user", u.ID, "day", today, "error", err)
		return err
	}
	if shared {
		s.logger.Debug("full completion collapsed with in-flight call", "user", u.ID, "day", today)
	}
	if text == "" {
		if _, err := s.drafts.SetDone(model.CategoryKeystone, true); err != nil {
			s.logger.Warn("draft flag not saved", "category", model.CategoryKeystone, "error", err)
		}
	}
	s.Refresh(ctx)
	return nil
}

// recordFull marks all three rituals done. Lock text comes from the draft or,
// failing that, from the stored row; a day is never completed without it.
func (s *Service) recordFull(ctx context.Context, userID string, today model.Date, text string) error {
	return s.inTx(ctx, func(tx storage.Repository) error {
		row, err := tx.GetCompletion(ctx, userID, today.String())
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		already := err == nil && row.FullyCompleted
		if !already {
			if text == "" && err == nil {
				text = row.KeystoneText
			}
			rec := model.DailyRecord{
				UserID:           userID,
				Day:              today,
				ProtocolDone:     true,
				ConstitutionDone: true,
				KeystoneDone:     true,
				KeystoneText:     text,
			}
			if err := rec.Validate(); err != nil {
				return err
			}
			if _, err := tx.UpsertCompletion(ctx, userID, today.String(), storage.CompletionPatch{
				ProtocolDone:     &rec.ProtocolDone,
				ConstitutionDone: &rec.ConstitutionDone,
				KeystoneDone:     &rec.KeystoneDone,
				KeystoneText:     &rec.KeystoneText,
				At:               s.clock.Now(),
			}); err != nil {
				return err
			}
		}
		sum, err := s.recompute(ctx, tx, userID, today)
		if err != nil {
			return err
		}
		s.logger.Info("full completion recorded",
			"user", userID,
			"day", today,
			"skipped_write", already,
			"current_streak", sum.CurrentStreak,
			"total_completions", sum.TotalCompletions,
		)
		return nil
	})
}

// recompute rebuilds the whole summary from the record set and stores it.
func (s *Service) recompute(ctx context.Context, tx storage.Repository, userID string, ref model.Date) (model.StreakSummary, error) {
	set, err := s.completedSet(ctx, tx, userID)
	if err != nil {
		return model.StreakSummary{}, err
	}
	prev, err := loadSummary(ctx, tx, userID)
	if err != nil {
		return model.StreakSummary{}, err
	}
	sum := streak.Summarize(userID, set, ref, prev)
	sum.UpdatedAt = s.clock.Now()
	if err := sum.Validate(); err != nil {
		return model.StreakSummary{}, fmt.Errorf("ritual: summary not stored: %w", err)
	}
	if err := tx.UpsertSummary(ctx, summaryToStorage(sum)); err != nil {
		return model.StreakSummary{}, err
	}
	return sum, nil
}

func (s *Service) completedSet(ctx context.Context, repo storage.Repository, userID string) (streak.Set, error) {
	days, err := repo.ListFullyCompletedDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(streak.Set, len(days))
	for _, raw := range days {
		d, err := model.ParseDate(raw)
		if err != nil {
			s.logger.Warn("skipping malformed completion date", "user", userID, "day", raw, "error", err)
			continue
		}
		set[d] = struct{}{}
	}
	return set, nil
}

func (s *Service) inTx(ctx context.Context, fn func(storage.Repository) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.repo.WithTx(ctx, fn); err != nil {
		if errors.Is(err, ErrEmptyKeystone) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return nil
}

func fullyCompleted(ctx context.Context, repo storage.Repository, userID string, day model.Date) (bool, error) {
	row, err := repo.GetCompletion(ctx, userID, day.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return row.FullyCompleted, nil
}

func loadSummary(ctx context.Context, repo storage.Repository, userID string) (model.StreakSummary, error) {
	row, err := repo.GetSummary(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.StreakSummary{UserID: userID}, nil
		}
		return model.StreakSummary{}, err
	}
	return summaryFromStorage(row)
}
