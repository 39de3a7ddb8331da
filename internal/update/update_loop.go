package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/ritualday/internal/ritual"
	"github.com/sandeepkv93/ritualday/internal/views"
)

func (m Model) Init() tea.Cmd {
	return m.startLoad()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handlePaletteKey(typed)
		}
		if m.Editing {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handleKeystoneKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Today:
			m.CurrentView = ViewToday
			return m, nil
		case m.Keys.Month:
			m.CurrentView = ViewMonth
			return m, m.startMonthLoad()
		case m.Keys.Streak:
			m.CurrentView = ViewStreak
			return m, nil
		case m.Keys.Refresh:
			m.Status = StatusBar{Text: "reloading"}
			return m, m.startLoad()
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.CurrentView {
		case ViewToday:
			return m.handleTodayKey(typed)
		case ViewMonth:
			return m.handleMonthKey(typed)
		}
	case tea.WindowSizeMsg:
		m.Width = typed.Width
		return m, nil
	case spinner.TickMsg:
		if m.Loading || m.Month.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
	case snapshotMsg:
		if !m.tracker.Snapshots().Commit(typed.Ticket, typed.Snapshot) {
			// a newer load already landed
			return m, nil
		}
		m.applySnapshot(typed.Snapshot)
		return m, m.refreshPanes()
	case SnapshotPublishedMsg:
		m.applySnapshot(m.tracker.Snapshots().Get())
		return m, m.refreshPanes()
	case writeDoneMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("%s failed: %v", typed.Action, typed.Err), IsError: true}
		} else {
			m.Status = StatusBar{Text: typed.Action + " saved", IsError: false}
		}
		// reload either way so the optimistic draft value shows after a failure
		return m, m.startLoad()
	case monthMsg:
		if typed.Gen != m.Month.gen {
			return m, nil
		}
		m.Month.Grid = typed.Grid
		m.Month.Loading = false
		return m, nil
	case stripMsg:
		if typed.Gen != m.stripGen {
			return m, nil
		}
		m.Strip = typed.Cells
		m.StripDays = typed.Days
		return m, nil
	case weekMsg:
		if typed.Gen != m.weekGen {
			return m, nil
		}
		m.Week = typed.Cells
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
			if typed.View == ViewMonth {
				return m, m.startMonthLoad()
			}
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewToday:
		leftPane = m.renderTodayView()
		rightPane = m.renderSidePane() + m.renderHelpIfVisible()
	case ViewMonth:
		leftPane = m.renderMonthView()
		rightPane = m.renderStreakPanel() + m.renderHelpIfVisible()
	case ViewStreak:
		leftPane = m.renderStreakReport()
		rightPane = views.RenderStrip(m.Snapshot.Strip) + m.renderHelpIfVisible()
	}

	notification := ""
	if m.LastError != nil && m.Status.IsError {
		notification = views.RenderNotification(levelFromError(true), m.LastError.Error())
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("ritualday | view: %s | %s | %s", m.CurrentView, m.Snapshot.Day, m.signedInLabel()),
		LeftPane:     strings.TrimSpace(leftPane),
		RightPane:    strings.TrimSpace(rightPane),
		StatusLine:   status,
		Palette:      m.renderCommandPalette(),
		Notification: notification,
		Width:        m.Width,
		Footer: fmt.Sprintf("keys: %s today | %s month | %s streak | %s reload | / cmd | %s help | %s quit",
			m.Keys.Today, m.Keys.Month, m.Keys.Streak, m.Keys.Refresh, m.Keys.Help, m.Keys.Quit),
	})
}

func (m *Model) applySnapshot(snap ritual.Snapshot) {
	m.Snapshot = snap
	m.Loaded = true
	m.Loading = false
	if snap.Degraded {
		m.Status = StatusBar{Text: "store unreachable, showing local draft", IsError: false}
	}
}

func isKnownView(v View) bool {
	switch v {
	case ViewToday, ViewMonth, ViewStreak:
		return true
	default:
		return false
	}
}
