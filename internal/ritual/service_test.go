package ritual

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/session"
	"github.com/sandeepkv93/ritualday/internal/storage"
)

type fixture struct {
	svc    *Service
	clock  *model.FixedClock
	drafts *draft.Store
}

func openRepo(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "ritual.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newFixture(t *testing.T, repo storage.Repository, auth session.Authenticator, day model.Date) fixture {
	t.Helper()
	clock := model.NewFixedClock(time.Date(day.Year, day.Month, day.Day, 8, 30, 0, 0, time.UTC))
	drafts := draft.NewStore(draft.NewMemoryKV(), clock)
	svc, err := NewService(Options{
		Repo:        repo,
		Drafts:      drafts,
		Auth:        auth,
		Clock:       clock,
		AuthTimeout: time.Second,
	})
	require.NoError(t, err)
	return fixture{svc: svc, clock: clock, drafts: drafts}
}

// completeDay drafts keystone text and records the whole day.
func (f fixture) completeDay(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := f.drafts.SetKeystoneText("focus block")
	require.NoError(t, err)
	require.NoError(t, f.svc.RecordFullCompletion(ctx, true, true, true))
}

var signedIn = session.Static{ID: "user-1", Name: "ada"}

func d(raw string) model.Date {
	return model.MustParseDate(raw)
}

func TestThreeSettersCompleteTheDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-10"))

	_, ok := f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, ok, "no record before the first write")

	require.NoError(t, f.svc.SetProtocolDone(ctx))
	require.NoError(t, f.svc.SetConstitutionDone(ctx))

	detail, ok := f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.ProtocolDone)
	assert.True(t, detail.ConstitutionDone)
	assert.False(t, detail.FullyCompleted)
	assert.Zero(t, f.svc.GetUserStreaks(ctx).TotalCompletions)

	require.NoError(t, f.svc.LockKeystone(ctx, "  ship the draft  "))

	detail, ok = f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.FullyCompleted)
	assert.False(t, detail.FromDraft)
	assert.Equal(t, "ship the draft", detail.KeystoneText)

	sum := f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 1, sum.CurrentStreak)
	assert.Equal(t, 1, sum.LongestStreak)
	assert.Equal(t, 1, sum.TotalCompletions)
	require.NotNil(t, sum.LastCompletedDate)
	assert.Equal(t, d("2024-01-10"), *sum.LastCompletedDate)
}

func TestStreakAcrossConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-09"))

	f.completeDay(t, ctx)
	f.clock.AdvanceDays(1)
	f.completeDay(t, ctx)

	sum := f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 2, sum.CurrentStreak)
	assert.Equal(t, 2, sum.LongestStreak)

	f.clock.AdvanceDays(1)
	sum = f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 0, sum.CurrentStreak, "today is not completed yet")
	assert.Equal(t, 2, sum.LongestStreak)
	assert.Equal(t, 2, sum.TotalCompletions)
}

func TestRecordFullCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-03-01"))

	require.NoError(t, f.svc.RecordFullCompletion(ctx, true, false, true))
	_, ok := f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, ok, "partial input must not write")

	f.completeDay(t, ctx)
	f.completeDay(t, ctx)

	sum := f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 1, sum.TotalCompletions)
	assert.Equal(t, 1, sum.CurrentStreak)
}

func TestFullCompletionNeedsLockText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-03-04"))

	err := f.svc.RecordFullCompletion(ctx, true, true, true)
	require.ErrorIs(t, err, ErrEmptyKeystone)
	assert.NotErrorIs(t, err, ErrRemoteUnavailable)

	_, ok := f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, ok, "a rejected completion must not write")
	st, err := f.drafts.Load()
	require.NoError(t, err)
	assert.True(t, st.IsDone(model.CategoryProtocol))
	assert.False(t, st.IsDone(model.CategoryKeystone))

	// lock text already stored for the day satisfies the rule
	require.NoError(t, f.svc.LockKeystone(ctx, "tidy desk"))
	_, err = f.drafts.SetKeystoneText("")
	require.NoError(t, err)
	require.NoError(t, f.svc.RecordFullCompletion(ctx, true, true, true))

	detail, ok := f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.FullyCompleted)
	assert.Equal(t, "tidy desk", detail.KeystoneText)
}

func TestConcurrentFullCompletionsCountOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-03-02"))

	_, err := f.drafts.SetKeystoneText("one shot")
	require.NoError(t, err)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.RecordFullCompletion(ctx, true, true, true)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sum := f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 1, sum.TotalCompletions)
	assert.Equal(t, 1, sum.LongestStreak)
}

func TestTwoServicesShareOneStoreWithoutDoubleCounting(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	a := newFixture(t, repo, signedIn, d("2024-03-03"))
	b := newFixture(t, repo, signedIn, d("2024-03-03"))

	require.NoError(t, a.svc.SetProtocolDone(ctx))
	require.NoError(t, b.svc.SetConstitutionDone(ctx))
	require.NoError(t, a.svc.LockKeystone(ctx, "walk"))
	require.NoError(t, b.svc.RecordFullCompletion(ctx, true, true, true))

	detail, ok := b.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.FullyCompleted)
	assert.Equal(t, 1, a.svc.GetUserStreaks(ctx).TotalCompletions)
}

func TestUndoLeavesPriorDaysIntact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-09"))

	f.completeDay(t, ctx)
	f.clock.AdvanceDays(1)
	require.NoError(t, f.svc.SetProtocolDone(ctx))
	require.NoError(t, f.svc.SetConstitutionDone(ctx))
	require.NoError(t, f.svc.LockKeystone(ctx, "deep work"))
	require.Equal(t, 2, f.svc.GetUserStreaks(ctx).LongestStreak)

	require.NoError(t, f.svc.SetProtocolUndone(ctx))

	detail, ok := f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.False(t, detail.FullyCompleted)
	assert.False(t, detail.ProtocolDone)

	sum := f.svc.GetUserStreaks(ctx)
	assert.Equal(t, 1, sum.TotalCompletions)
	assert.Equal(t, 2, sum.LongestStreak)
	assert.Equal(t, 0, sum.CurrentStreak)

	month := f.svc.GetMonthDailyCompletions(ctx, 2024, time.January)
	assert.Equal(t, model.DayStatusFull, month.Of(d("2024-01-09")))
	assert.Equal(t, model.DayStatusPartial, month.Of(d("2024-01-10")))
}

func TestLongestNeverDecreases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-05-01"))

	prev := 0
	observe := func() {
		got := f.svc.GetUserStreaks(ctx).LongestStreak
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
	for i := 0; i < 3; i++ {
		f.completeDay(t, ctx)
		observe()
		f.clock.AdvanceDays(1)
	}
	require.NoError(t, f.svc.SetProtocolDone(ctx))
	observe()
	f.clock.AdvanceDays(1)
	f.completeDay(t, ctx)
	observe()
	require.NoError(t, f.svc.UnlockKeystone(ctx))
	observe()
	assert.Equal(t, 3, prev)
}

func TestKeystoneNeedsLockText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-02-01"))

	assert.ErrorIs(t, f.svc.LockKeystone(ctx, "   "), ErrEmptyKeystone)
	assert.ErrorIs(t, f.svc.SetDone(ctx, model.CategoryKeystone), ErrEmptyKeystone)

	_, err := f.drafts.SetKeystoneText("read")
	require.NoError(t, err)
	require.NoError(t, f.svc.SetDone(ctx, model.CategoryKeystone))

	detail, ok := f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.KeystoneDone)
	assert.Equal(t, "read", detail.KeystoneText)

	require.NoError(t, f.svc.SetUndone(ctx, model.CategoryKeystone))
	detail, _ = f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, detail.KeystoneDone)
	assert.Empty(t, detail.KeystoneText)

	assert.ErrorIs(t, f.svc.SetDone(ctx, model.Category("nap")), model.ErrInvalidCategory)
}

var errDown = errors.New("backend down")

type failingRepo struct{}

func (failingRepo) GetCompletion(context.Context, string, string) (storage.DailyCompletion, error) {
	return storage.DailyCompletion{}, errDown
}

func (failingRepo) UpsertCompletion(context.Context, string, string, storage.CompletionPatch) (storage.DailyCompletion, error) {
	return storage.DailyCompletion{}, errDown
}

func (failingRepo) ListCompletions(context.Context, storage.CompletionListFilter) ([]storage.DailyCompletion, error) {
	return nil, errDown
}

func (failingRepo) ListFullyCompletedDays(context.Context, string) ([]string, error) {
	return nil, errDown
}

func (failingRepo) GetSummary(context.Context, string) (storage.StreakSummary, error) {
	return storage.StreakSummary{}, errDown
}

func (failingRepo) UpsertSummary(context.Context, storage.StreakSummary) error {
	return errDown
}

func (failingRepo) WithTx(context.Context, func(storage.Repository) error) error {
	return errDown
}

func TestRemoteFailureKeepsDraftAndDegradesReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingRepo{}, signedIn, d("2024-01-10"))

	err := f.svc.SetProtocolDone(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.ErrorIs(t, err, errDown)

	st, err := f.drafts.Load()
	require.NoError(t, err)
	assert.True(t, st.IsDone(model.CategoryProtocol), "optimistic flag survives the failed write")

	detail, ok := f.svc.GetTodayCompletionDetail(ctx)
	require.True(t, ok)
	assert.True(t, detail.FromDraft)
	assert.True(t, detail.ProtocolDone)

	assert.Equal(t, model.StreakSummary{UserID: signedIn.ID}, f.svc.GetUserStreaks(ctx))
	assert.Empty(t, f.svc.GetMonthDailyCompletions(ctx, 2024, time.January))

	snap := f.svc.Refresh(ctx)
	assert.True(t, snap.Degraded)
	assert.True(t, snap.Today.FromDraft)
	assert.Len(t, snap.Strip, f.svc.TrailingDays())
}

func TestWithoutSessionReadsAreEmptyAndWritesFail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), session.Static{}, d("2024-01-10"))

	assert.ErrorIs(t, f.svc.SetConstitutionDone(ctx), ErrNotAuthenticated)
	assert.ErrorIs(t, f.svc.RecordFullCompletion(ctx, true, true, true), ErrNotAuthenticated)

	_, ok := f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, ok)
	assert.Equal(t, model.StreakSummary{}, f.svc.GetUserStreaks(ctx))
	assert.Empty(t, f.svc.GetLastNDaysCompletions(ctx, 7))

	snap := f.svc.Refresh(ctx)
	assert.False(t, snap.Authenticated)
	assert.False(t, snap.Degraded)
}

func TestCalendarProjections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-08"))

	f.completeDay(t, ctx)
	f.clock.AdvanceDays(2)
	require.NoError(t, f.svc.SetProtocolDone(ctx))

	grid := f.svc.MonthGrid(ctx, 2024, time.January)
	assert.Equal(t, 0, grid.LeadingBlanks())
	cells := grid.Cells()
	require.Len(t, cells, 31)
	assert.Equal(t, model.DayStatusFull, cells[7].Status)
	assert.Equal(t, model.DayStatusNone, cells[8].Status)
	assert.Equal(t, model.DayStatusPartial, cells[9].Status)

	strip := f.svc.Strip(ctx, 3)
	require.Len(t, strip, 3)
	assert.Equal(t, d("2024-01-08"), strip[0].Date)
	assert.Equal(t, []model.DayStatus{model.DayStatusFull, model.DayStatusNone, model.DayStatusPartial},
		[]model.DayStatus{strip[0].Status, strip[1].Status, strip[2].Status})

	week := f.svc.CurrentWeek(ctx)
	require.Len(t, week, 3)
	assert.Equal(t, d("2024-01-08"), week[0].Date)
	assert.Equal(t, d("2024-01-10"), week[2].Date)
}

func TestDayCrossingClearsDraftNotHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-10"))

	require.NoError(t, f.svc.SetProtocolDone(ctx))
	_, err := f.svc.SetPriority(ctx, "taxes")
	require.NoError(t, err)

	f.clock.AdvanceDays(1)
	st, err := f.svc.Draft()
	require.NoError(t, err)
	assert.Empty(t, st.Priority)
	assert.False(t, st.IsDone(model.CategoryProtocol))

	statuses := f.svc.GetLastNDaysCompletions(ctx, 2)
	assert.Equal(t, model.DayStatusPartial, statuses.Of(d("2024-01-10")))

	_, ok := f.svc.GetTodayCompletionDetail(ctx)
	assert.False(t, ok)
}

func TestRefreshPublishesToSubscribers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-10"))

	ch, cancel := f.svc.Snapshots().Subscribe()
	defer cancel()

	f.completeDay(t, ctx)

	select {
	case snap := <-ch:
		assert.True(t, snap.Authenticated)
		assert.True(t, snap.HasToday)
		assert.True(t, snap.Today.FullyCompleted)
		assert.Equal(t, 1, snap.Summary.CurrentStreak)
		require.NotEmpty(t, snap.Strip)
		assert.Equal(t, model.DayStatusFull, snap.Strip[len(snap.Strip)-1].Status)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	assert.Equal(t, 1, f.svc.Snapshots().Get().Summary.TotalCompletions)
}

func TestLocalDraftEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, openRepo(t), signedIn, d("2024-01-10"))

	st, err := f.svc.SetStep(ctx, model.CategoryConstitution, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, st.Steps[model.CategoryConstitution])

	_, err = f.svc.SetStep(ctx, model.Category("x"), 0, true)
	assert.ErrorIs(t, err, model.ErrInvalidCategory)

	st, err = f.svc.Ack(ctx, "disclaimer")
	require.NoError(t, err)
	assert.True(t, st.Acks["disclaimer"])
	assert.True(t, f.svc.Snapshots().Get().Draft.Acks["disclaimer"])
}
