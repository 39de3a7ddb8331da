package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/ritualday/internal/model"
)

func (m Model) handleTodayKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(model.Categories)-1 {
			m.Cursor++
		}
	case " ", "enter", "x":
		return m.toggleSelected()
	case "a":
		m.Status = StatusBar{Text: "recording full completion"}
		return m, m.writeCmd("complete", func(ctx context.Context) error {
			return m.tracker.RecordFullCompletion(ctx, true, true, true)
		})
	}
	return m, nil
}

func (m Model) selectedCategory() model.Category {
	if m.Cursor < 0 || m.Cursor >= len(model.Categories) {
		return model.CategoryProtocol
	}
	return model.Categories[m.Cursor]
}

// toggleSelected flips the selected sub-task. Locking the keystone opens the
// text input first.
func (m Model) toggleSelected() (Model, tea.Cmd) {
	c := m.selectedCategory()
	done := m.Snapshot.Today.Done(c)
	if !done && c == model.CategoryKeystone {
		m.Editing = true
		m.keystoneInput.SetValue(m.Snapshot.Draft.KeystoneText)
		m.keystoneInput.Focus()
		m.Status = StatusBar{Text: "type the keystone and press enter"}
		return m, textinput.Blink
	}
	return m, m.setCategoryCmd(c, !done)
}

func (m Model) setCategoryCmd(c model.Category, done bool) tea.Cmd {
	action := fmt.Sprintf("undo %s", c)
	if done {
		action = fmt.Sprintf("done %s", c)
	}
	tracker := m.tracker
	return m.writeCmd(action, func(ctx context.Context) error {
		if done {
			return tracker.SetDone(ctx, c)
		}
		return tracker.SetUndone(ctx, c)
	})
}

func (m Model) handleKeystoneKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Editing = false
		m.keystoneInput.Blur()
		m.Status = StatusBar{Text: "keystone lock cancelled"}
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.keystoneInput.Value())
		m.Editing = false
		m.keystoneInput.Blur()
		m.keystoneInput.SetValue("")
		tracker := m.tracker
		return m, m.writeCmd("lock keystone", func(ctx context.Context) error {
			return tracker.LockKeystone(ctx, text)
		})
	}
	if msg.Type == tea.KeyRunes {
		m.keystoneInput.SetValue(m.keystoneInput.Value() + string(msg.Runes))
		return m, nil
	}
	var cmd tea.Cmd
	m.keystoneInput, cmd = m.keystoneInput.Update(msg)
	return m, cmd
}
