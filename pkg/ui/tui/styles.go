package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	sky    = lipgloss.Color("#5FD7FF")
	plum   = lipgloss.Color("#AF87D7")
	leaf   = lipgloss.Color("#87D75F")
	amber  = lipgloss.Color("#FFD75F")
	ember  = lipgloss.Color("#FF875F")
	blood  = lipgloss.Color("#FF5F5F")
	night  = lipgloss.Color("#121826")
	slate  = lipgloss.Color("#1E2636")
	fog    = lipgloss.Color("#B8C0CC")
	muted  = lipgloss.Color("#5C6370")
	trough = lipgloss.Color("#303846")

	screenStyle = lipgloss.NewStyle().
			Background(night).
			Foreground(fog)

	logoStyle = lipgloss.NewStyle().
			Foreground(sky).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(plum).
			Background(slate).
			Padding(1, 2)

	headingStyle = lipgloss.NewStyle().
			Background(plum).
			Foreground(night).
			Bold(true).
			Padding(0, 1)

	labelStyle  = lipgloss.NewStyle().Foreground(sky).Bold(true)
	valueStyle  = lipgloss.NewStyle().Foreground(amber)
	countStyle  = lipgloss.NewStyle().Foreground(sky)
	quietStyle  = lipgloss.NewStyle().Foreground(muted)
	troughStyle = lipgloss.NewStyle().Foreground(trough)
	finishStyle = lipgloss.NewStyle().Foreground(leaf).Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(1, 0, 0, 2)
)

// jobStyles colors a job line by state. Finished jobs are indented under
// their group header.
var jobStyles = map[JobState]lipgloss.Style{
	JobPending:     lipgloss.NewStyle().Foreground(amber),
	JobActive:      lipgloss.NewStyle().Foreground(leaf).Bold(true).PaddingLeft(2),
	JobDone:        lipgloss.NewStyle().Foreground(fog).Faint(true).PaddingLeft(2),
	JobUnavailable: lipgloss.NewStyle().Foreground(ember).PaddingLeft(2),
	JobFailed:      lipgloss.NewStyle().Foreground(blood).PaddingLeft(2),
}

// groupStyles colors the header of each result group.
var groupStyles = map[JobState]lipgloss.Style{
	JobPending:     lipgloss.NewStyle().Foreground(amber).Bold(true),
	JobDone:        lipgloss.NewStyle().Foreground(leaf).Bold(true),
	JobUnavailable: lipgloss.NewStyle().Foreground(ember).Bold(true),
	JobFailed:      lipgloss.NewStyle().Foreground(blood).Bold(true),
}

// mark is the one-rune symbol shown next to a job.
func (s JobState) mark() string {
	switch s {
	case JobPending:
		return "⏳"
	case JobDone:
		return "✓"
	case JobUnavailable:
		return "–"
	case JobFailed:
		return "✗"
	default:
		return "•"
	}
}

// logColors maps a log level to its tag color.
var logColors = map[string]lipgloss.Color{
	"ERROR":   blood,
	"WARN":    ember,
	"SUCCESS": leaf,
	"INFO":    sky,
}

func logColor(level string) lipgloss.Color {
	if c, ok := logColors[level]; ok {
		return c
	}
	return fog
}

// quotaStyle colors the quota by how much of it is left: green above 30%,
// orange down to 10%, red below.
func quotaStyle(remaining, limit int) lipgloss.Style {
	if limit <= 0 {
		return quietStyle
	}
	left := float64(remaining) / float64(limit)
	switch {
	case left < 0.1:
		return lipgloss.NewStyle().Foreground(blood)
	case left < 0.3:
		return lipgloss.NewStyle().Foreground(ember)
	default:
		return lipgloss.NewStyle().Foreground(leaf)
	}
}
