package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
 ┏━┓┏━┓┏━┓┏━┓╺┳╸
 ┣┳┛┃ ┃┃ ┃┗━┓ ┃
 ╹┗╸┗━┛┗━┛┗━┛ ╹
 rate-aware collection`

// View renders the dashboard
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	col := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.batchPanel(col),
		m.activePanel(col),
		m.resultsPanel(col),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.quotaPanel(col),
		m.logPanel(col),
	)

	footer := hintStyle.Render("Press ? for help")
	if m.showHelp {
		footer = m.helpPanel()
	}

	return screenStyle.Width(m.width).Height(m.height).Render(lipgloss.JoinVertical(lipgloss.Left,
		logoStyle.Width(m.width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
		footer,
	))
}

// panel draws a titled box of the given width around lines.
func panel(title string, width int, lines ...string) string {
	body := append([]string{headingStyle.Render(" " + title + " ")}, lines...)
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func (m *Model) batchPanel(width int) string {
	bar := m.overall
	bar.Width = max(width-8, 10)

	lines := []string{
		field("Session Time", valueStyle.Render(formatDuration(time.Since(m.sessionStartTime)))),
		field("Subjects", valueStyle.Render(fmt.Sprintf("%d/%d", m.done+m.unavailable+m.failed, m.total))),
		field("Workers", valueStyle.Render(fmt.Sprintf("%d busy of %d", m.active, m.workers))),
		field("IDs Collected", countStyle.Render(fmt.Sprintf("%d", m.totalItems))),
		field("ETA", valueStyle.Render(formatDuration(m.eta()))),
		bar.ViewAs(m.percent()),
	}
	if m.finished {
		lines = append(lines, finishStyle.Render("✓ FINISHED"))
	}
	return panel("BATCH", width, lines...)
}

func (m *Model) activePanel(width int) string {
	active := m.jobsLocked(JobActive)
	if len(active) == 0 {
		return panel("IN PROGRESS", width, quietStyle.Render("Idle"))
	}

	lines := make([]string, 0, len(active))
	for _, job := range active {
		lines = append(lines, m.spinner.View()+" "+
			jobStyles[JobActive].Render(job.Subject)+" "+
			quietStyle.Render(formatDuration(time.Since(job.StartTime))))
	}
	return panel("IN PROGRESS", width, lines...)
}

func (m *Model) resultsPanel(width int) string {
	var lines []string
	if pending := m.total - len(m.jobOrder); pending > 0 {
		lines = append(lines, groupStyles[JobPending].Render(fmt.Sprintf("%s %d pending", JobPending.mark(), pending)))
	}

	groups := []struct {
		state JobState
		label string
	}{
		{JobDone, "collected"},
		{JobUnavailable, "unavailable"},
		{JobFailed, "failed"},
	}
	for _, g := range groups {
		jobs := m.jobsLocked(g.state)
		if len(jobs) == 0 {
			continue
		}
		mark := g.state.mark()
		lines = append(lines, groupStyles[g.state].Render(fmt.Sprintf("%s %d %s", mark, len(jobs), g.label)))
		for _, job := range tail(jobs, 3) {
			lines = append(lines, jobStyles[g.state].Render(mark+" "+jobDetail(job)))
		}
	}

	if len(lines) == 0 {
		lines = append(lines, quietStyle.Render("Nothing finished yet"))
	}
	return panel("RESULTS", width, lines...)
}

func jobDetail(job JobItem) string {
	switch job.State {
	case JobDone:
		return fmt.Sprintf("%s (%d)", job.Subject, job.Items)
	case JobUnavailable:
		return job.Subject + " " + job.Reason
	default:
		return job.Subject
	}
}

func (m *Model) quotaPanel(width int) string {
	if m.rateLimitLimit <= 0 {
		return panel("RATE LIMIT", width, quietStyle.Render("No quota seen yet"))
	}

	style := quotaStyle(m.rateLimitRemaining, m.rateLimitLimit)
	barWidth := max(width-8, 1)
	used := min(max(m.rateLimitLimit-m.rateLimitRemaining, 0), m.rateLimitLimit)
	filled := used * barWidth / m.rateLimitLimit

	resetIn := time.Until(m.rateLimitResetAt)
	if m.rateLimitResetAt.IsZero() || resetIn < 0 {
		resetIn = 0
	}

	return panel("RATE LIMIT", width,
		field("Remaining", style.Render(fmt.Sprintf("%d/%d", m.rateLimitRemaining, m.rateLimitLimit))),
		style.Render(strings.Repeat("█", filled))+troughStyle.Render(strings.Repeat("░", barWidth-filled)),
		field("Reset in", valueStyle.Render(formatDuration(resetIn))),
	)
}

func (m *Model) logPanel(width int) string {
	var lines []string
	for _, entry := range tail(m.logMessages, 10) {
		msg := entry.Message
		if limit := width - 25; limit > 3 && len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		tag := lipgloss.NewStyle().Foreground(entry.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", entry.Level))
		lines = append(lines, quietStyle.Render(entry.Time.Format("15:04:05"))+" "+tag+" "+msg)
	}
	if len(lines) == 0 {
		lines = append(lines, quietStyle.Render("No logs yet..."))
	}

	body := strings.Join(lines, "\n")
	return panelStyle.Width(width).Height(max(m.height-30, 5)).Render(
		lipgloss.JoinVertical(lipgloss.Left, headingStyle.Render(" LOGS "), body),
	)
}

func (m *Model) helpPanel() string {
	help := `
  Keys:
    q/Q      - Quit and cancel the batch
    ctrl+l   - Clear logs
    ?        - Toggle this help

  Status:
    ` + groupStyles[JobDone].Render(JobDone.mark()) + `        - Collected
    ` + groupStyles[JobUnavailable].Render(JobUnavailable.mark()) + `        - Account unavailable
    ` + groupStyles[JobFailed].Render(JobFailed.mark()) + `        - Failed
`
	return panelStyle.Width(m.width).Render(help)
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// formatDuration renders mm:ss, or hh:mm:ss from one hour on.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
