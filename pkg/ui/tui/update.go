package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"xwatch/pkg/status"
)

// SnapshotMsg carries the result of one poll
type SnapshotMsg struct {
	Snapshot status.Snapshot
	Err      error
	At       time.Time
}

// pollMsg schedules the next poll
type pollMsg struct{}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = clamp(msg.Width-30, 10, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		if msg.Err != nil {
			if m.fetchErr == nil || m.fetchErr.Error() != msg.Err.Error() {
				m.addLog(msg.At, "Status endpoint unreachable: "+msg.Err.Error(), alertRed)
			}
			m.fetchErr = msg.Err
		} else {
			m.fetchErr = nil
			m.apply(msg.Snapshot, msg.At)
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })

	case pollMsg:
		return m, m.poll()
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "r":
		return m, m.poll()
	case "ctrl+l":
		m.log = nil
	}
	return m, nil
}

// poll fetches one snapshot with a timeout of one polling interval
func (m *Model) poll() tea.Cmd {
	fetch, interval := m.fetch, m.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), interval+2*time.Second)
		defer cancel()
		snap, err := fetch(ctx)
		return SnapshotMsg{Snapshot: snap, Err: err, At: time.Now()}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
