package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/ritualday/internal/commands"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	tracker := m.tracker
	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Done: func(a commands.CategoryArgs) (commands.Result, error) {
			next = m.writeCmd("done "+string(a.Category), func(ctx context.Context) error {
				return tracker.SetDone(ctx, a.Category)
			})
			return commands.Result{Message: fmt.Sprintf("marking %s done", a.Category)}, nil
		},
		Undo: func(a commands.CategoryArgs) (commands.Result, error) {
			next = m.writeCmd("undo "+string(a.Category), func(ctx context.Context) error {
				return tracker.SetUndone(ctx, a.Category)
			})
			return commands.Result{Message: fmt.Sprintf("clearing %s", a.Category)}, nil
		},
		Lock: func(a commands.TextArgs) (commands.Result, error) {
			next = m.writeCmd("lock keystone", func(ctx context.Context) error {
				return tracker.LockKeystone(ctx, a.Text)
			})
			return commands.Result{Message: "locking keystone"}, nil
		},
		Unlock: func() (commands.Result, error) {
			next = m.writeCmd("unlock keystone", tracker.UnlockKeystone)
			return commands.Result{Message: "unlocking keystone"}, nil
		},
		Complete: func() (commands.Result, error) {
			next = m.writeCmd("complete", func(ctx context.Context) error {
				return tracker.RecordFullCompletion(ctx, true, true, true)
			})
			return commands.Result{Message: "recording full completion"}, nil
		},
		Streak: func() (commands.Result, error) {
			m.CurrentView = ViewStreak
			return commands.Result{Message: "streak report"}, nil
		},
		Month: func(a commands.MonthArgs) (commands.Result, error) {
			if a.Year == 0 {
				today := tracker.Today()
				a.Year, a.Month = today.Year, today.Month
			}
			m.CurrentView = ViewMonth
			m.Month.Year, m.Month.Month = a.Year, a.Month
			next = m.startMonthLoad()
			return commands.Result{Message: fmt.Sprintf("loading %s %d", a.Month, a.Year)}, nil
		},
		Last: func(a commands.LastArgs) (commands.Result, error) {
			days := a.Days
			if days == 0 {
				days = tracker.TrailingDays()
			}
			next = m.startStripLoad(days)
			return commands.Result{Message: fmt.Sprintf("loading last %d days", days)}, nil
		},
		Week: func() (commands.Result, error) {
			next = m.startWeekLoad()
			return commands.Result{Message: "loading current week"}, nil
		},
		Priority: func(a commands.TextArgs) (commands.Result, error) {
			next = m.writeCmd("priority", func(ctx context.Context) error {
				_, err := tracker.SetPriority(ctx, a.Text)
				return err
			})
			return commands.Result{Message: "saving priority"}, nil
		},
		Step: func(a commands.StepArgs) (commands.Result, error) {
			checked := true
			steps := m.Snapshot.Draft.Steps[a.Category]
			if a.Index < len(steps) {
				checked = !steps[a.Index]
			}
			next = m.writeCmd("step", func(ctx context.Context) error {
				_, err := tracker.SetStep(ctx, a.Category, a.Index, checked)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("toggling %s step %d", a.Category, a.Index+1)}, nil
		},
		Ack: func(a commands.TextArgs) (commands.Result, error) {
			next = m.writeCmd("ack", func(ctx context.Context) error {
				_, err := tracker.Ack(ctx, a.Text)
				return err
			})
			return commands.Result{Message: fmt.Sprintf("acknowledging %s", a.Text)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: false}
	return m, next
}
