package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleMonthKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.shiftMonth(-1)
		return m, m.startMonthLoad()
	case "l", "right":
		m.shiftMonth(1)
		return m, m.startMonthLoad()
	case "t":
		today := m.tracker.Today()
		m.Month.Year, m.Month.Month = today.Year, today.Month
		return m, m.startMonthLoad()
	}
	return m, nil
}

func (m *Model) shiftMonth(delta int) {
	t := time.Date(m.Month.Year, m.Month.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	m.Month.Year, m.Month.Month = t.Year(), t.Month()
}

// startMonthLoad bumps the month generation so a slower earlier fetch for a
// different month is dropped on arrival.
func (m *Model) startMonthLoad() tea.Cmd {
	m.Month.gen++
	m.Month.Loading = true
	gen, year, month := m.Month.gen, m.Month.Year, m.Month.Month
	tracker := m.tracker
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return monthMsg{Gen: gen, Grid: tracker.MonthGrid(ctx, year, month)}
	}
}

func (m *Model) startStripLoad(days int) tea.Cmd {
	m.stripGen++
	gen := m.stripGen
	tracker := m.tracker
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return stripMsg{Gen: gen, Days: days, Cells: tracker.Strip(ctx, days)}
	}
}

func (m *Model) startWeekLoad() tea.Cmd {
	m.weekGen++
	gen := m.weekGen
	tracker := m.tracker
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return weekMsg{Gen: gen, Cells: tracker.CurrentWeek(ctx)}
	}
}

// refreshPanes reloads the strip and week panes already on screen so they
// follow the latest committed snapshot.
func (m *Model) refreshPanes() tea.Cmd {
	var cmds []tea.Cmd
	if len(m.Strip) > 0 {
		cmds = append(cmds, m.startStripLoad(m.StripDays))
	}
	if len(m.Week) > 0 {
		cmds = append(cmds, m.startWeekLoad())
	}
	return tea.Batch(cmds...)
}
