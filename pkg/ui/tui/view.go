package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard
func (m *Model) View() string {
	if !m.hasSnap && m.fetchErr == nil {
		return m.spinner.View() + " Connecting to crawler..."
	}

	sections := []string{
		titleStyle.Render(" XWATCH "),
		m.renderRun(),
		m.renderProgress(),
		m.renderLog(),
	}
	if m.showHelp {
		sections = append(sections, helpStyle.Render("q quit  r refresh  ctrl+l clear log  ? hide help"))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(label), valueStyle.Render(value))
}

func (m *Model) renderRun() string {
	s := m.snap
	state := stateStyle(s.State).Render(strings.ToUpper(s.State))
	if s.State == "processing" {
		state = m.spinner.View() + " " + state
	}

	lines := []string{
		row("Run:", fmt.Sprintf("%s (%s)", s.RunID, s.Mode)),
		fmt.Sprintf("%s %s", labelStyle.Render("State:"), state),
		row("Cycle:", fmt.Sprintf("%d", s.Cycle)),
		row("Uptime:", formatDuration(time.Since(s.StartedAt))),
	}
	if !s.WakeAt.IsZero() {
		lines = append(lines, row("Next item in:", formatDuration(time.Until(s.WakeAt))))
	}
	if !s.LastItemAt.IsZero() {
		lines = append(lines, row("Last item:", formatDuration(time.Since(s.LastItemAt))+" ago"))
	}
	if m.fetchErr != nil {
		lines = append(lines, warningStyle.Render("stale: "+m.fetchErr.Error()))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderProgress() string {
	s := m.snap
	current := s.CurrentItem
	if current == "" {
		current = "-"
	}
	lines := []string{
		row("Item:", fmt.Sprintf("%d/%d", min(s.Index+1, s.Total), s.Total)),
		row("Current:", current),
		m.bar.ViewAs(m.Fraction()),
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderLog() string {
	if len(m.log) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.log))
	for _, l := range m.log {
		lines = append(lines, fmt.Sprintf("%s %s",
			logTimestampStyle.Render(l.Time.Format("15:04:05")),
			lipgloss.NewStyle().Foreground(l.Color).Render(l.Message)))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// formatDuration renders d as h:mm:ss, clamping negatives to zero
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%d:%02d:%02d", h, m, d/time.Second)
}
