package update

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

// startLoad takes a fresh ticket and fetches a snapshot off the update loop.
// The result only lands if no newer load committed first.
func (m *Model) startLoad() tea.Cmd {
	m.Loading = true
	ticket := m.tracker.Snapshots().Begin()
	tracker := m.tracker
	ctx, cancel := m.context()
	load := func() tea.Msg {
		defer cancel()
		return snapshotMsg{Ticket: ticket, Snapshot: tracker.Load(ctx)}
	}
	return tea.Batch(load, m.loadSpinner.Tick)
}

// writeCmd runs a tracker mutation and reports it as writeDoneMsg.
func (m Model) writeCmd(action string, fn func(context.Context) error) tea.Cmd {
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		return writeDoneMsg{Action: action, Err: fn(ctx)}
	}
}

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}
