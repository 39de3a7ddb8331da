package update

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/ritualday/internal/calendar"
	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/ritual"
	"github.com/sandeepkv93/ritualday/internal/state"
)

type fakeTracker struct {
	mu        sync.Mutex
	today     model.Date
	snapshots *state.Container[ritual.Snapshot]
	detail    ritual.Detail
	calls     []string
	writeErr  error
	months    []time.Month
	statuses  calendar.Statuses
}

func newFakeTracker() *fakeTracker {
	today := model.NewDate(2024, time.January, 10)
	return &fakeTracker{
		today:     today,
		snapshots: state.New(ritual.Snapshot{}, 4),
		detail:    ritual.Detail{Day: today},
		statuses:  calendar.Statuses{},
	}
}

func (f *fakeTracker) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.writeErr
}

func (f *fakeTracker) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeTracker) Today() model.Date { return f.today }
func (f *fakeTracker) TrailingDays() int { return 7 }

func (f *fakeTracker) Snapshots() *state.Container[ritual.Snapshot] { return f.snapshots }

func (f *fakeTracker) Load(context.Context) ritual.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ritual.Snapshot{
		Day:           f.today,
		Authenticated: true,
		Today:         f.detail,
		HasToday:      true,
		Summary:       model.StreakSummary{UserID: "u1", CurrentStreak: 4, LongestStreak: 9, TotalCompletions: 20},
		Strip:         calendar.Trailing(7, f.today, f.statuses),
	}
}

func (f *fakeTracker) SetDone(_ context.Context, c model.Category) error {
	if err := f.record("done " + string(c)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[f.today] = model.DayStatusPartial
	return nil
}

func (f *fakeTracker) SetUndone(_ context.Context, c model.Category) error {
	return f.record("undo " + string(c))
}

func (f *fakeTracker) LockKeystone(_ context.Context, text string) error {
	return f.record("lock " + text)
}

func (f *fakeTracker) UnlockKeystone(context.Context) error {
	return f.record("unlock")
}

func (f *fakeTracker) RecordFullCompletion(_ context.Context, p, c, k bool) error {
	if !p || !c || !k {
		return f.record("noop")
	}
	return f.record("complete")
}

func (f *fakeTracker) MonthGrid(_ context.Context, year int, month time.Month) calendar.Grid {
	f.mu.Lock()
	f.months = append(f.months, month)
	f.mu.Unlock()
	return calendar.Month(year, month, nil)
}

func (f *fakeTracker) Strip(_ context.Context, n int) []calendar.Cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	return calendar.Trailing(n, f.today, f.statuses)
}

func (f *fakeTracker) CurrentWeek(ctx context.Context) []calendar.Cell {
	return calendar.CurrentWeek(f.Strip(ctx, 7), f.today)
}

func (f *fakeTracker) SetPriority(_ context.Context, text string) (draft.State, error) {
	return draft.State{Priority: text}, f.record("priority " + text)
}

func (f *fakeTracker) SetStep(_ context.Context, c model.Category, i int, checked bool) (draft.State, error) {
	return draft.State{}, f.record("step " + string(c))
}

func (f *fakeTracker) Ack(_ context.Context, name string) (draft.State, error) {
	return draft.State{}, f.record("ack " + name)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// drain runs cmd and feeds every resulting message except spinner ticks back
// into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 40; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		var follow tea.Cmd
		m, follow = send(t, m, msg)
		queue = append(queue, follow)
	}
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(newFakeTracker())
	if m.CurrentView != ViewToday {
		t.Fatalf("expected default view %q, got %q", ViewToday, m.CurrentView)
	}
	if m.Keys.Quit != "q" || m.StripDays != 7 {
		t.Fatalf("unexpected defaults: keys=%+v strip=%d", m.Keys, m.StripDays)
	}
	if m.Month.Year != 2024 || m.Month.Month != time.January {
		t.Fatalf("unexpected month state: %+v", m.Month)
	}
}

func TestViewShowsLoadingBeforeFirstSnapshot(t *testing.T) {
	m := NewModel(newFakeTracker())
	if m.Init() == nil {
		t.Fatal("expected init to start a load")
	}
	if !m.Loading || m.Loaded {
		t.Fatalf("expected loading state, got loaded=%v loading=%v", m.Loaded, m.Loading)
	}
	out := m.View()
	if !strings.Contains(out, "loading") || strings.Contains(out, "current: 0") {
		t.Fatalf("expected loading state before first snapshot: %q", out)
	}
	if _, cmd := send(t, m, m.loadSpinner.Tick()); cmd == nil {
		t.Fatal("expected spinner to keep ticking while loading")
	}
}

func TestInitLoadsSnapshot(t *testing.T) {
	m := NewModel(newFakeTracker())
	m = drain(t, m, m.Init())
	if !m.Loaded || m.Loading {
		t.Fatalf("expected loaded model, got loaded=%v loading=%v", m.Loaded, m.Loading)
	}
	if m.Snapshot.Summary.CurrentStreak != 4 {
		t.Fatalf("unexpected summary: %+v", m.Snapshot.Summary)
	}
	out := m.View()
	if !strings.Contains(out, "current: 4") || !strings.Contains(out, "longest: 9") {
		t.Fatalf("expected streak panel in view: %q", out)
	}
}

func TestStaleSnapshotIsDiscarded(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)

	older := tracker.snapshots.Begin()
	newer := tracker.snapshots.Begin()

	m, _ = send(t, m, snapshotMsg{Ticket: newer, Snapshot: ritual.Snapshot{Summary: model.StreakSummary{CurrentStreak: 2}}})
	m, _ = send(t, m, snapshotMsg{Ticket: older, Snapshot: ritual.Snapshot{Summary: model.StreakSummary{CurrentStreak: 1}}})
	if m.Snapshot.Summary.CurrentStreak != 2 {
		t.Fatalf("late stale snapshot overwrote fresher state: %+v", m.Snapshot.Summary)
	}
}

func TestStaleMonthIsDiscarded(t *testing.T) {
	m := NewModel(newFakeTracker())
	m, _ = send(t, m, keyMsg("2"))
	first := m.Month.gen
	m, _ = send(t, m, keyMsg("l"))

	m, _ = send(t, m, monthMsg{Gen: first, Grid: calendar.Month(2024, time.January, nil)})
	if len(m.Month.Grid.Weeks) != 0 || !m.Month.Loading {
		t.Fatal("expected stale month result to be dropped")
	}
	m, _ = send(t, m, monthMsg{Gen: m.Month.gen, Grid: calendar.Month(2024, time.February, nil)})
	if m.Month.Grid.Month != time.February || m.Month.Loading {
		t.Fatalf("expected february grid, got %+v", m.Month.Grid.Month)
	}
}

func TestStaleStripAndWeekAreDiscarded(t *testing.T) {
	m := NewModel(newFakeTracker())
	older := m.startStripLoad(3)
	newer := m.startStripLoad(5)

	m, _ = send(t, m, newer())
	m, _ = send(t, m, older())
	if m.StripDays != 5 || len(m.Strip) != 5 {
		t.Fatalf("late strip from an older load won: days=%d cells=%d", m.StripDays, len(m.Strip))
	}

	m.startWeekLoad()
	current := m.startWeekLoad()
	m, _ = send(t, m, current())
	m, _ = send(t, m, weekMsg{Gen: m.weekGen - 1})
	if len(m.Week) != 3 {
		t.Fatalf("expected current week result to survive a stale one, got %+v", m.Week)
	}
}

func TestPanesFollowWritesAfterReload(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, keyMsg("/"))
	m, _ = send(t, m, keyMsg("last 3"))
	m, cmd := send(t, m, keyMsg("enter"))
	m = drain(t, m, cmd)
	m, _ = send(t, m, keyMsg("/"))
	m, _ = send(t, m, keyMsg("week"))
	m, cmd = send(t, m, keyMsg("enter"))
	m = drain(t, m, cmd)
	if len(m.Strip) != 3 || m.Strip[2].Status != model.DayStatusNone {
		t.Fatalf("unexpected strip before write: %+v", m.Strip)
	}

	m, cmd = send(t, m, keyMsg(" "))
	m = drain(t, m, cmd)
	if tracker.lastCall() != "done protocol" {
		t.Fatalf("unexpected call %q", tracker.lastCall())
	}
	if len(m.Strip) != 3 || m.Strip[2].Status != model.DayStatusPartial {
		t.Fatalf("strip did not follow the write: %+v", m.Strip)
	}
	last := m.Week[len(m.Week)-1]
	if last.Date != tracker.today || last.Status != model.DayStatusPartial {
		t.Fatalf("week did not follow the write: %+v", m.Week)
	}
	if out := m.View(); !strings.Contains(out, "2024-01-08 .. 2024-01-10") || !strings.Contains(out, "week:") {
		t.Fatalf("expected strip and week panes in view: %q", out)
	}
}

func TestPublishedSnapshotIsAdopted(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)
	m = drain(t, m, m.Init())

	older := tracker.snapshots.Begin()
	tracker.snapshots.Set(ritual.Snapshot{Day: tracker.today, Summary: model.StreakSummary{CurrentStreak: 6, LongestStreak: 9}})
	m.Loading = true
	m, _ = send(t, m, SnapshotPublishedMsg{})
	if m.Snapshot.Summary.CurrentStreak != 6 || m.Loading {
		t.Fatalf("expected published snapshot adopted, got %+v loading=%v", m.Snapshot.Summary, m.Loading)
	}

	m, _ = send(t, m, snapshotMsg{Ticket: older, Snapshot: ritual.Snapshot{}})
	if m.Snapshot.Summary.CurrentStreak != 6 {
		t.Fatalf("older load overwrote the published snapshot: %+v", m.Snapshot.Summary)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModel(newFakeTracker())
	m, cmd := send(t, m, keyMsg("2"))
	if m.CurrentView != ViewMonth || cmd == nil {
		t.Fatalf("expected month view with load cmd, got %q", m.CurrentView)
	}
	m, _ = send(t, m, keyMsg("3"))
	if m.CurrentView != ViewStreak {
		t.Fatalf("expected streak view, got %q", m.CurrentView)
	}
	m, _ = send(t, m, SwitchViewMsg{View: View("Unknown")})
	if m.CurrentView != ViewStreak {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestToggleProtocolRecordsWrite(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)
	m, cmd := send(t, m, keyMsg(" "))
	if cmd == nil {
		t.Fatal("expected write command")
	}
	m = drain(t, m, cmd)
	if tracker.lastCall() != "done protocol" {
		t.Fatalf("unexpected call %q", tracker.lastCall())
	}
	if m.Status.Text != "done protocol saved" {
		t.Fatalf("unexpected status %+v", m.Status)
	}
	if !m.Loaded {
		t.Fatal("expected reload after write")
	}
}

func TestToggleDoneSubtaskUndoes(t *testing.T) {
	tracker := newFakeTracker()
	tracker.detail.ConstitutionDone = true
	m := NewModel(tracker)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, keyMsg("j"))
	_, cmd := send(t, m, keyMsg(" "))
	drain(t, m, cmd)
	if tracker.lastCall() != "undo constitution" {
		t.Fatalf("unexpected call %q", tracker.lastCall())
	}
}

func TestKeystoneLockUsesTextInput(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)
	m, _ = send(t, m, keyMsg("j"))
	m, _ = send(t, m, keyMsg("j"))
	m, _ = send(t, m, keyMsg(" "))
	if !m.Editing {
		t.Fatal("expected keystone input to open")
	}
	m, _ = send(t, m, keyMsg("read 20 pages"))
	m, cmd := send(t, m, keyMsg("enter"))
	if m.Editing {
		t.Fatal("expected input closed after enter")
	}
	drain(t, m, cmd)
	if tracker.lastCall() != "lock read 20 pages" {
		t.Fatalf("unexpected call %q", tracker.lastCall())
	}
}

func TestPaletteRunsCommands(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"complete", "complete"},
		{"done c", "done constitution"},
		{"undo keystone", "undo keystone"},
		{"lock write", "lock write"},
		{"unlock", "unlock"},
		{"priority taxes", "priority taxes"},
		{"step p 1", "step protocol"},
		{"ack terms", "ack terms"},
	}
	for _, tc := range cases {
		tracker := newFakeTracker()
		m := NewModel(tracker)
		m, _ = send(t, m, keyMsg("/"))
		m, _ = send(t, m, keyMsg(tc.input))
		m, cmd := send(t, m, keyMsg("enter"))
		if m.Palette.Active {
			t.Fatalf("%q: palette should close", tc.input)
		}
		drain(t, m, cmd)
		if tracker.lastCall() != tc.want {
			t.Fatalf("%q: unexpected call %q", tc.input, tracker.lastCall())
		}
	}
}

func TestPaletteMonthAndParseError(t *testing.T) {
	tracker := newFakeTracker()
	m := NewModel(tracker)
	m, _ = send(t, m, keyMsg("/"))
	m, _ = send(t, m, keyMsg("month 2023-11"))
	m, cmd := send(t, m, keyMsg("enter"))
	if m.CurrentView != ViewMonth || m.Month.Month != time.November || m.Month.Year != 2023 {
		t.Fatalf("unexpected month state: view=%s %+v", m.CurrentView, m.Month)
	}
	m = drain(t, m, cmd)
	if m.Month.Grid.LeadingBlanks() != 2 {
		t.Fatalf("expected two leading blanks for November 2023, got %d", m.Month.Grid.LeadingBlanks())
	}

	m, _ = send(t, m, keyMsg("/"))
	m, _ = send(t, m, keyMsg("bogus"))
	m, _ = send(t, m, keyMsg("enter"))
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown_command") {
		t.Fatalf("expected parse error status, got %+v", m.Status)
	}
}

func TestWriteFailureSurfacesInStatus(t *testing.T) {
	tracker := newFakeTracker()
	tracker.writeErr = errors.New("store down")
	m := NewModel(tracker)
	_, cmd := send(t, m, keyMsg("a"))
	m = drain(t, m, cmd)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "store down") {
		t.Fatalf("expected error status, got %+v", m.Status)
	}
	if m.LastError == nil {
		t.Fatal("expected last error recorded")
	}
	if !strings.Contains(m.View(), "status: error:") {
		t.Fatal("expected error status in view")
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(newFakeTracker())
	m, _ = send(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	m, _ = send(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", m.Status)
	}
	m, _ = send(t, m, ClearStatusMsg{})
	if m.Status.Text != "" || m.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", m.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m := NewModel(newFakeTracker())
	m, cmd := send(t, m, keyMsg("q"))
	if !m.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m := NewModel(newFakeTracker())
	m = drain(t, m, m.Init())
	m.Status = StatusBar{Text: "all good"}
	out := m.View()
	for _, want := range []string{"view: Today", "2024-01-10", "status: all good", "[ ] protocol"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %q", want, out)
		}
	}
}

func TestHelpPanelListsPaletteGrammar(t *testing.T) {
	m := NewModel(newFakeTracker())
	m, _ = send(t, m, keyMsg("?"))
	if !m.HelpVisible {
		t.Fatal("expected help visible")
	}
	out := m.View()
	for _, want := range []string{"mark all three done", "/lock <text>, unlock"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in help output: %q", want, out)
		}
	}
	m, _ = send(t, m, keyMsg("?"))
	if m.HelpVisible || m.Status.Text != "help hidden" {
		t.Fatalf("expected help hidden, got visible=%v status=%q", m.HelpVisible, m.Status.Text)
	}
}
