package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/ritualday/internal/calendar"
	"github.com/sandeepkv93/ritualday/internal/draft"
	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/ritual"
	"github.com/sandeepkv93/ritualday/internal/state"
)

// Tracker is what the TUI needs from the ritual service.
type Tracker interface {
	Today() model.Date
	TrailingDays() int
	Snapshots() *state.Container[ritual.Snapshot]
	Load(ctx context.Context) ritual.Snapshot

	SetDone(ctx context.Context, c model.Category) error
	SetUndone(ctx context.Context, c model.Category) error
	LockKeystone(ctx context.Context, text string) error
	UnlockKeystone(ctx context.Context) error
	RecordFullCompletion(ctx context.Context, protocol, constitution, keystone bool) error

	MonthGrid(ctx context.Context, year int, month time.Month) calendar.Grid
	Strip(ctx context.Context, n int) []calendar.Cell
	CurrentWeek(ctx context.Context) []calendar.Cell

	SetPriority(ctx context.Context, text string) (draft.State, error)
	SetStep(ctx context.Context, c model.Category, index int, checked bool) (draft.State, error)
	Ack(ctx context.Context, name string) (draft.State, error)
}

type View string

const (
	ViewToday  View = "Today"
	ViewMonth  View = "Month"
	ViewStreak View = "Streak"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today   string
	Month   string
	Streak  string
	Refresh string
	Help    string
	Quit    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type MonthState struct {
	Year    int
	Month   time.Month
	Grid    calendar.Grid
	Loading bool
	gen     uint64
}

type Model struct {
	CurrentView View
	Snapshot    ritual.Snapshot
	Loaded      bool
	Loading     bool
	Cursor      int
	Editing     bool
	Month       MonthState
	Strip       []calendar.Cell
	StripDays   int
	Week        []calendar.Cell
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error
	Width       int

	tracker Tracker
	// stripGen and weekGen drop pane results from superseded loads.
	stripGen uint64
	weekGen  uint64
	// timeout bounds each tracker call made from a command.
	timeout time.Duration

	keystoneInput textinput.Model
	commandInput  textinput.Model
	loadSpinner   spinner.Model
	helpModel     help.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type snapshotMsg struct {
	Ticket   state.Ticket
	Snapshot ritual.Snapshot
}

type writeDoneMsg struct {
	Action string
	Err    error
}

type monthMsg struct {
	Gen  uint64
	Grid calendar.Grid
}

type stripMsg struct {
	Gen   uint64
	Days  int
	Cells []calendar.Cell
}

type weekMsg struct {
	Gen   uint64
	Cells []calendar.Cell
}

// SnapshotPublishedMsg reports that the shared snapshot changed, possibly
// through a load this model did not start.
type SnapshotPublishedMsg struct{}

func NewModel(tracker Tracker) Model {
	today := tracker.Today()
	m := Model{
		CurrentView: ViewToday,
		StripDays:   tracker.TrailingDays(),
		Month:       MonthState{Year: today.Year, Month: today.Month},
		Keys: GlobalKeyMap{
			Today:   "1",
			Month:   "2",
			Streak:  "3",
			Refresh: "r",
			Help:    "?",
			Quit:    "q",
		},
		Loading: true,
		tracker: tracker,
		timeout: 10 * time.Second,
	}
	m.Snapshot.Day = today
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.keystoneInput = textinput.New()
	m.keystoneInput.Prompt = "keystone> "
	m.keystoneInput.Placeholder = "what will you finish today?"
	m.keystoneInput.CharLimit = 140
	m.keystoneInput.Width = 36

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}
