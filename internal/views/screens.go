package views

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/ritualday/internal/calendar"
	"github.com/sandeepkv93/ritualday/internal/model"
)

const (
	GlyphFull    = "●"
	GlyphPartial = "◐"
	GlyphNone    = "·"
)

func Glyph(status model.DayStatus) string {
	switch status {
	case model.DayStatusFull:
		return GlyphFull
	case model.DayStatusPartial:
		return GlyphPartial
	default:
		return GlyphNone
	}
}

type ChecklistItem struct {
	Category model.Category
	Done     bool
	Detail   string
}

type TodayPanelData struct {
	Day           string
	Items         []ChecklistItem
	Cursor        int
	Priority      string
	KeystoneInput string
	Editing       bool
	FromDraft     bool
	Loading       bool
	SpinnerView   string
}

type StreakPanelData struct {
	Summary     model.StreakSummary
	Loading     bool
	SpinnerView string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTodayPanel(data TodayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("today: %s\n", data.Day))
	if data.Loading {
		b.WriteString(fmt.Sprintf("%s loading\n", data.SpinnerView))
	}
	if data.FromDraft {
		b.WriteString("(offline: showing local draft)\n")
	}
	b.WriteString("\n")
	for i, item := range data.Items {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		box := "[ ]"
		if item.Done {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, box, item.Category))
		if item.Detail != "" {
			b.WriteString(": " + item.Detail)
		}
		b.WriteString("\n")
	}
	if data.Editing {
		b.WriteString("\nlock keystone:\n")
		b.WriteString(data.KeystoneInput + "\n")
	}
	if data.Priority != "" {
		b.WriteString(fmt.Sprintf("\npriority: %s\n", data.Priority))
	}
	allDone := len(data.Items) > 0
	for _, item := range data.Items {
		allDone = allDone && item.Done
	}
	if allDone {
		b.WriteString("\nday complete " + GlyphFull)
	}
	return strings.TrimSpace(b.String())
}

func RenderStreakPanel(data StreakPanelData) string {
	if data.Loading {
		return fmt.Sprintf("streak:\n%s loading", data.SpinnerView)
	}
	s := data.Summary
	last := "-"
	if s.LastCompletedDate != nil {
		last = s.LastCompletedDate.String()
	}
	return fmt.Sprintf("streak:\ncurrent: %d\nlongest: %d\ntotal: %d\nlast: %s",
		s.CurrentStreak, s.LongestStreak, s.TotalCompletions, last)
}

// RenderMonthGrid lays the grid out Monday first. Today is underlined.
func RenderMonthGrid(grid calendar.Grid, today model.Date) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %d\n", grid.Month, grid.Year))
	b.WriteString("Mo  Tu  We  Th  Fr  Sa  Su\n")
	for _, week := range grid.Weeks {
		cells := make([]string, 0, 7)
		for _, c := range week {
			if c == nil {
				cells = append(cells, "   ")
				continue
			}
			text := fmt.Sprintf("%2d%s", c.Date.Day, Glyph(c.Status))
			text = styleStatus(c.Status, text)
			if c.Date == today {
				text = todayStyle.Render(text)
			}
			cells = append(cells, text)
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	full, partial := 0, 0
	days := grid.Cells()
	for _, c := range days {
		switch c.Status {
		case model.DayStatusFull:
			full++
		case model.DayStatusPartial:
			partial++
		}
	}
	b.WriteString(fmt.Sprintf("%d/%d full, %d partial", full, len(days), partial))
	return b.String()
}

// RenderStrip renders cells oldest first as one glyph each.
func RenderStrip(cells []calendar.Cell) string {
	if len(cells) == 0 {
		return ""
	}
	glyphs := make([]string, 0, len(cells))
	full := 0
	for _, c := range cells {
		glyphs = append(glyphs, styleStatus(c.Status, Glyph(c.Status)))
		if c.Status == model.DayStatusFull {
			full++
		}
	}
	return fmt.Sprintf("%s .. %s\n%s\n%d/%d full",
		cells[0].Date, cells[len(cells)-1].Date, strings.Join(glyphs, ""), full, len(cells))
}

func RenderWeek(cells []calendar.Cell) string {
	var b strings.Builder
	b.WriteString("week:\n")
	if len(cells) == 0 {
		b.WriteString("(no days)")
		return b.String()
	}
	for _, c := range cells {
		b.WriteString(fmt.Sprintf("%s %s %s\n", c.Date.Time().Weekday().String()[:3], c.Date, styleStatus(c.Status, string(c.Status))))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
