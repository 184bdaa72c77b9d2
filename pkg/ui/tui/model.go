package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xwatch/pkg/status"
)

// Fetcher returns the crawl's current progress
type Fetcher func(ctx context.Context) (status.Snapshot, error)

// LogLine is one entry in the activity pane
type LogLine struct {
	Time    time.Time
	Message string
	Color   lipgloss.Color
}

// Model is the watch dashboard. It polls a Fetcher and keeps a short
// activity history derived from successive snapshots.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	fetch    Fetcher
	interval time.Duration

	snap      status.Snapshot
	hasSnap   bool
	fetchErr  error
	lastFetch time.Time

	log    []LogLine
	maxLog int

	width    int
	height   int
	showHelp bool
}

// NewModel builds a dashboard polling fetch every interval
func NewModel(fetch Fetcher, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	if interval <= 0 {
		interval = time.Second
	}
	return Model{
		spinner:  s,
		bar:      bar,
		fetch:    fetch,
		interval: interval,
		maxLog:   20,
	}
}

// Init starts the spinner and the first poll
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

// apply folds a fresh snapshot into the model and logs what moved
func (m *Model) apply(next status.Snapshot, at time.Time) {
	prev, had := m.snap, m.hasSnap
	m.snap, m.hasSnap = next, true
	m.lastFetch = at

	switch {
	case !had:
		m.addLog(at, fmt.Sprintf("Attached to run %s (%s)", next.RunID, next.Mode), neonCyan)
	case next.RunID != prev.RunID:
		m.addLog(at, fmt.Sprintf("New run %s", next.RunID), neonCyan)
	}
	if next.Cycle != prev.Cycle && had {
		m.addLog(at, fmt.Sprintf("Cycle %d started", next.Cycle), neonYellow)
	}
	if next.CurrentItem != "" && (next.CurrentItem != prev.CurrentItem || next.Index != prev.Index) {
		m.addLog(at, fmt.Sprintf("Processing %s (%d/%d)", next.CurrentItem, next.Index+1, next.Total), neonGreen)
	}
	if next.LastError != "" && next.LastError != prev.LastError {
		m.addLog(at, next.LastError, alertRed)
	}
	if next.State == status.StateStopped && prev.State != status.StateStopped {
		m.addLog(at, "Crawler stopped", neonOrange)
	}
}

func (m *Model) addLog(at time.Time, msg string, color lipgloss.Color) {
	m.log = append(m.log, LogLine{Time: at, Message: msg, Color: color})
	if len(m.log) > m.maxLog {
		m.log = m.log[len(m.log)-m.maxLog:]
	}
}

// Fraction is the share of the current cycle already processed
func (m Model) Fraction() float64 {
	if m.snap.Total == 0 {
		return 0
	}
	f := float64(m.snap.Index) / float64(m.snap.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Log returns the activity history, oldest first
func (m Model) Log() []LogLine {
	return m.log
}
