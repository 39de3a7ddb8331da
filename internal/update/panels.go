package update

import (
	"strings"

	"github.com/sandeepkv93/ritualday/internal/model"
	"github.com/sandeepkv93/ritualday/internal/views"
)

func (m Model) renderCommandPalette() string {
	if !m.Palette.Active {
		return ""
	}
	return views.RenderCommandPalette(true, m.commandInput.Value())
}

func (m Model) renderTodayView() string {
	items := make([]views.ChecklistItem, 0, len(model.Categories))
	for _, c := range model.Categories {
		item := views.ChecklistItem{Category: c, Done: m.Snapshot.Today.Done(c)}
		if c == model.CategoryKeystone && item.Done {
			item.Detail = m.Snapshot.Today.KeystoneText
		}
		if steps := m.Snapshot.Draft.Steps[c]; len(steps) > 0 {
			checked := 0
			for _, s := range steps {
				if s {
					checked++
				}
			}
			item.Detail = strings.TrimSpace(item.Detail + " " + stepTally(checked, len(steps)))
		}
		items = append(items, item)
	}
	return views.RenderTodayPanel(views.TodayPanelData{
		Day:           m.Snapshot.Day.String(),
		Items:         items,
		Cursor:        m.Cursor,
		Priority:      m.Snapshot.Draft.Priority,
		KeystoneInput: m.keystoneInput.View(),
		Editing:       m.Editing,
		FromDraft:     m.Snapshot.Today.FromDraft,
		Loading:       m.Loading && !m.Loaded,
		SpinnerView:   m.loadSpinner.View(),
	})
}

func stepTally(checked, total int) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.Repeat("+", checked))
	b.WriteString(strings.Repeat("-", total-checked))
	b.WriteString(")")
	return b.String()
}

func (m Model) renderStreakPanel() string {
	return views.RenderStreakPanel(views.StreakPanelData{
		Summary:     m.Snapshot.Summary,
		Loading:     m.Loading && !m.Loaded,
		SpinnerView: m.loadSpinner.View(),
	})
}

func (m Model) renderSidePane() string {
	parts := []string{m.renderStreakPanel()}
	strip := m.Strip
	if len(strip) == 0 {
		strip = m.Snapshot.Strip
	}
	if len(strip) > 0 {
		parts = append(parts, views.RenderStrip(strip))
	}
	if len(m.Week) > 0 {
		parts = append(parts, views.RenderWeek(m.Week))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMonthView() string {
	if m.Month.Loading && len(m.Month.Grid.Weeks) == 0 {
		return m.loadSpinner.View() + " loading month"
	}
	return views.RenderMonthGrid(m.Month.Grid, m.tracker.Today())
}

func (m Model) renderStreakReport() string {
	if m.Loading && !m.Loaded {
		return m.loadSpinner.View() + " loading"
	}
	return views.RenderMarkdown(views.StreakReportMarkdown(m.Snapshot.Summary))
}

func (m Model) signedInLabel() string {
	switch {
	case m.Snapshot.Authenticated && m.Snapshot.User.Name != "":
		return m.Snapshot.User.Name
	case m.Snapshot.Authenticated:
		return m.Snapshot.User.ID
	case m.Snapshot.Degraded:
		return "offline"
	default:
		return "signed out"
	}
}
