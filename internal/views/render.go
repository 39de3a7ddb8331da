package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/ritualday/internal/model"
)

type AppData struct {
	Header       string
	LeftPane     string
	RightPane    string
	StatusLine   string
	Footer       string
	Notification string
	Palette      string
	// Width is the terminal width; zero uses the fixed two-pane layout.
	Width int
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	fullStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	todayStyle   = lipgloss.NewStyle().Underline(true)
)

const paneWidth = 44

func RenderApp(data AppData) string {
	width := paneWidth
	if data.Width > 0 {
		// two panes with borders and padding
		if w := data.Width/2 - 4; w > 20 {
			width = w
		}
	}
	left := panelStyle.Width(width).Render(data.LeftPane)
	right := panelStyle.Width(width).Render(data.RightPane)
	row := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := statusStyle.Render(data.StatusLine)
	if strings.Contains(strings.ToLower(data.StatusLine), "error") {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{
		headerStyle.Render(data.Header),
		row,
		status,
	}
	if data.Palette != "" {
		lines = append(lines, data.Palette)
	}
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// StreakReportMarkdown formats a summary for glamour. A user with no history
// gets a neutral message, never an error.
func StreakReportMarkdown(sum model.StreakSummary) string {
	var b strings.Builder
	b.WriteString("# Streak\n\n")
	if sum.TotalCompletions == 0 && sum.LongestStreak == 0 {
		b.WriteString("No fully completed days yet. Finish all three rituals today to start one.\n")
		return b.String()
	}
	b.WriteString("| | days |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| current | %d |\n", sum.CurrentStreak))
	b.WriteString(fmt.Sprintf("| longest | %d |\n", sum.LongestStreak))
	b.WriteString(fmt.Sprintf("| total | %d |\n", sum.TotalCompletions))
	if sum.LastCompletedDate != nil {
		b.WriteString(fmt.Sprintf("\nLast fully completed: **%s**\n", sum.LastCompletedDate.String()))
	}
	return b.String()
}

func styleStatus(status model.DayStatus, text string) string {
	switch status {
	case model.DayStatusFull:
		return fullStyle.Render(text)
	case model.DayStatusPartial:
		return partialStyle.Render(text)
	default:
		return noneStyle.Render(text)
	}
}
