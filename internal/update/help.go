package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/ritualday/internal/views"
)

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

// paletteHelp lists the palette grammar shown under the key bindings.
var paletteHelp = []string{
	"done|undo <p|c|k>",
	"lock <text>, unlock",
	"complete, streak",
	"month [YYYY-MM], last [n], week",
	"priority <text>, step <p|c|k> <n>, ack <name>",
}

func bind(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	global, contextual := m.globalBindings(), m.viewBindings()
	lines := make([]string, 0, len(contextual)+len(paletteHelp))
	for _, b := range contextual {
		lines = append(lines, fmt.Sprintf("- %s: %s", b.Help().Key, b.Help().Desc))
	}
	for _, p := range paletteHelp {
		lines = append(lines, "- /"+p)
	}
	m.helpModel.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    lines,
		HelpView: m.helpModel.View(helpKeyMap{
			short: global,
			full:  [][]key.Binding{global, contextual},
		}),
	})
}

func (m Model) globalBindings() []key.Binding {
	return []key.Binding{
		bind("today", m.Keys.Today),
		bind("month", m.Keys.Month),
		bind("streak", m.Keys.Streak),
		bind("reload", m.Keys.Refresh),
		bind("command", "/"),
		bind("help", m.Keys.Help),
		bind("quit", m.Keys.Quit, "ctrl+c"),
	}
}

func (m Model) viewBindings() []key.Binding {
	switch m.CurrentView {
	case ViewToday:
		return []key.Binding{
			bind("move selection", "j", "down", "k", "up"),
			bind("toggle selected ritual", "space", "enter", "x"),
			bind("mark all three done", "a"),
		}
	case ViewMonth:
		return []key.Binding{
			bind("previous month", "h", "left"),
			bind("next month", "l", "right"),
			bind("back to this month", "t"),
		}
	default:
		return nil
	}
}
