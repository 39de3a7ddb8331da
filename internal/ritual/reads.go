package ritual

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/ritualday/internal/calendar"
	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/session"
	"github.com/sandeepkv93/ritualday/internal/state"
	"github.com/sandeepkv93/ritualday/internal/storage"
	"github.com/sandeepkv93/ritualday/internal/streak"
)

// Detail is today's completion state as shown to the user.
type Detail struct {
	Day              model.Date
	ProtocolDone     bool
	ConstitutionDone bool
	KeystoneDone     bool
	KeystoneText     string
	FullyCompleted   bool
	FromDraft        bool
}

func (d Detail) Done(c model.Category) bool {
	switch c {
	case model.CategoryProtocol:
		return d.ProtocolDone
	case model.CategoryConstitution:
		return d.ConstitutionDone
	case model.CategoryKeystone:
		return d.KeystoneDone
	default:
		return false
	}
}

func detailFromRecord(r model.DailyRecord) Detail {
	return Detail{
		Day:              r.Day,
		ProtocolDone:     r.ProtocolDone,
		ConstitutionDone: r.ConstitutionDone,
		KeystoneDone:     r.KeystoneDone,
		KeystoneText:     r.KeystoneText,
		FullyCompleted:   r.FullyCompleted(),
	}
}

func detailFromDraft(st draft.State) (Detail, bool) {
	d := Detail{
		Day:              st.Day,
		ProtocolDone:     st.IsDone(model.CategoryProtocol),
		ConstitutionDone: st.IsDone(model.CategoryConstitution),
		KeystoneDone:     st.IsDone(model.CategoryKeystone),
		KeystoneText:     st.KeystoneText,
		FromDraft:        true,
	}
	d.FullyCompleted = d.ProtocolDone && d.ConstitutionDone && d.KeystoneDone
	return d, d.ProtocolDone || d.ConstitutionDone || d.KeystoneDone
}

// Snapshot is the shared view of one user's day.
type Snapshot struct {
	User          session.User
	Authenticated bool
	Day           model.Date
	Today         Detail
	HasToday      bool
	Summary       model.StreakSummary
	Strip         []calendar.Cell
	Draft         draft.State
	Degraded      bool
	LoadedAt      time.Time
}

// GetTodayCompletionDetail returns today's record. When the store is
// unreachable the optimistic draft stands in; without a session it is absent.
func (s *Service) GetTodayCompletionDetail(ctx context.Context) (Detail, bool) {
	u, err := s.user(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return Detail{}, false
		}
		s.logger.Warn("today detail degraded to draft", "error", err)
		return s.draftDetail()
	}
	d, ok, err := s.fetchToday(ctx, u.ID, s.clock.Today())
	if err != nil {
		s.logger.Warn("today detail degraded to draft", "user", u.ID, "error", err)
		return s.draftDetail()
	}
	return d, ok
}

func (s *Service) draftDetail() (Detail, bool) {
	st, err := s.drafts.Load()
	if err != nil {
		s.logger.Warn("draft unreadable", "error", err)
		return Detail{}, false
	}
	return detailFromDraft(st)
}

// GetUserStreaks returns the stored aggregate with the current streak
// re-derived against today. Failures yield a zero summary.
func (s *Service) GetUserStreaks(ctx context.Context) model.StreakSummary {
	u, err := s.user(ctx)
	if err != nil {
		s.logReadDegraded("streaks", err)
		return model.StreakSummary{}
	}
	sum, err := s.fetchSummary(ctx, u.ID, s.clock.Today())
	if err != nil {
		s.logger.Warn("streaks degraded to zero", "user", u.ID, "error", err)
		return model.StreakSummary{UserID: u.ID}
	}
	return sum
}

func (s *Service) GetMonthDailyCompletions(ctx context.Context, year int, month time.Month) calendar.Statuses {
	first := model.NewDate(year, month, 1)
	last := model.NewDate(year, month, model.DaysInMonth(year, month))
	return s.statuses(ctx, first, last)
}

// GetLastNDaysCompletions covers the n days ending today; n <= 0 uses the
// configured trailing window.
func (s *Service) GetLastNDaysCompletions(ctx context.Context, n int) calendar.Statuses {
	if n <= 0 {
		n = s.trailingDays
	}
	today := s.clock.Today()
	return s.statuses(ctx, today.AddDays(-(n - 1)), today)
}

func (s *Service) MonthGrid(ctx context.Context, year int, month time.Month) calendar.Grid {
	return calendar.Month(year, month, s.GetMonthDailyCompletions(ctx, year, month))
}

func (s *Service) Strip(ctx context.Context, n int) []calendar.Cell {
	if n <= 0 {
		n = s.trailingDays
	}
	return calendar.Trailing(n, s.clock.Today(), s.GetLastNDaysCompletions(ctx, n))
}

// CurrentWeek filters a trailing window that always reaches back to Monday.
func (s *Service) CurrentWeek(ctx context.Context) []calendar.Cell {
	n := s.trailingDays
	if n < 7 {
		n = 7
	}
	return calendar.CurrentWeek(s.Strip(ctx, n), s.clock.Today())
}

func (s *Service) statuses(ctx context.Context, from, to model.Date) calendar.Statuses {
	u, err := s.user(ctx)
	if err != nil {
		s.logReadDegraded("calendar", err)
		return calendar.Statuses{}
	}
	out, err := s.fetchStatuses(ctx, u.ID, from, to)
	if err != nil {
		s.logger.Warn("calendar degraded to empty", "user", u.ID, "from", from, "to", to, "error", err)
		return calendar.Statuses{}
	}
	return out
}

func (s *Service) logReadDegraded(what string, err error) {
	if errors.Is(err, ErrNotAuthenticated) {
		s.logger.Debug("read without session", "read", what)
		return
	}
	s.logger.Warn("read degraded", "read", what, "error", err)
}

func (s *Service) fetchToday(ctx context.Context, userID string, today model.Date) (Detail, bool, error) {
	row, err := s.repo.GetCompletion(ctx, userID, today.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Detail{}, false, nil
		}
		return Detail{}, false, err
	}
	rec, err := recordFromStorage(row)
	if err != nil {
		return Detail{}, false, err
	}
	return detailFromRecord(rec), true, nil
}

func (s *Service) fetchSummary(ctx context.Context, userID string, today model.Date) (model.StreakSummary, error) {
	stored, err := loadSummary(ctx, s.repo, userID)
	if err != nil {
		return model.StreakSummary{}, err
	}
	set, err := s.completedSet(ctx, s.repo, userID)
	if err != nil {
		return model.StreakSummary{}, err
	}
	out := streak.Summarize(userID, set, today, stored)
	out.UpdatedAt = stored.UpdatedAt
	return out, nil
}

func (s *Service) fetchStatuses(ctx context.Context, userID string, from, to model.Date) (calendar.Statuses, error) {
	rows, err := s.repo.ListCompletions(ctx, storage.CompletionListFilter{
		UserID: userID,
		From:   from.String(),
		To:     to.String(),
	})
	if err != nil {
		return nil, err
	}
	out := make(calendar.Statuses, len(rows))
	for _, row := range rows {
		rec, err := recordFromStorage(row)
		if err != nil {
			s.logger.Warn("skipping malformed record", "error", err)
			continue
		}
		out[rec.Day] = rec.Status()
	}
	return out, nil
}

// Snapshots exposes the shared container. Readers call Get or Subscribe.
func (s *Service) Snapshots() *state.Container[Snapshot] {
	return s.snapshots
}

// Refresh loads everything the UI shows in parallel and publishes it. A
// refresh overtaken by a newer one is not published.
func (s *Service) Refresh(ctx context.Context) Snapshot {
	ticket := s.snapshots.Begin()
	snap := s.load(ctx)
	if !s.snapshots.Commit(ticket, snap) {
		s.logger.Debug("stale refresh discarded", "ticket", ticket)
	}
	return snap
}

// Load builds a snapshot without publishing it.
func (s *Service) Load(ctx context.Context) Snapshot {
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) Snapshot {
	today := s.clock.Today()
	snap := Snapshot{Day: today, LoadedAt: s.clock.Now()}

	if st, err := s.drafts.Load(); err == nil {
		snap.Draft = st
	} else {
		s.logger.Warn("draft unreadable", "error", err)
	}

	u, err := s.user(ctx)
	if err != nil {
		s.logReadDegraded("snapshot", err)
		snap.Degraded = !errors.Is(err, ErrNotAuthenticated)
		if snap.Degraded {
			snap.Today, snap.HasToday = detailFromDraft(snap.Draft)
		}
		snap.Strip = calendar.Trailing(s.trailingDays, today, nil)
		return snap
	}
	snap.User = u
	snap.Authenticated = true

	var statuses calendar.Statuses
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, ok, err := s.fetchToday(gctx, u.ID, today)
		if err != nil {
			return err
		}
		snap.Today, snap.HasToday = d, ok
		return nil
	})
	g.Go(func() error {
		sum, err := s.fetchSummary(gctx, u.ID, today)
		if err != nil {
			return err
		}
		snap.Summary = sum
		return nil
	})
	g.Go(func() error {
		st, err := s.fetchStatuses(gctx, u.ID, today.AddDays(-(s.trailingDays - 1)), today)
		if err != nil {
			return err
		}
		statuses = st
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("snapshot degraded", "user", u.ID, "error", err)
		snap.Degraded = true
		if !snap.HasToday {
			snap.Today, snap.HasToday = detailFromDraft(snap.Draft)
		}
		if snap.Summary.UserID == "" {
			snap.Summary = model.StreakSummary{UserID: u.ID}
		}
	}
	snap.Strip = calendar.Trailing(s.trailingDays, today, statuses)
	return snap
}
