package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// JobStartMsg is sent when a worker picks up a subject
type JobStartMsg struct {
	ID      string
	Subject string
}

// JobCompleteMsg is sent when a subject was fully collected
type JobCompleteMsg struct {
	ID    string
	Items int
}

// JobSkipMsg is sent when a subject's account was unavailable
type JobSkipMsg struct {
	ID     string
	Reason string
}

// JobErrorMsg is sent when a subject failed
type JobErrorMsg struct {
	ID    string
	Error error
}

// BatchDoneMsg is sent once every subject has a final state
type BatchDoneMsg struct{}

// RateLimitUpdateMsg is sent to update rate limit status
type RateLimitUpdateMsg struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tea.Batch(tickCmd(), m.spinner.Tick)

	case JobStartMsg:
		m.StartJob(msg.ID, msg.Subject)
		m.AddLogMessage("INFO", "Collecting "+msg.Subject)
		return m, nil

	case JobCompleteMsg:
		m.CompleteJob(msg.ID, msg.Items)
		if job, ok := m.job(msg.ID); ok {
			m.AddLogMessage("SUCCESS", "Collected "+job.Subject)
		}
		return m, nil

	case JobSkipMsg:
		m.SkipJob(msg.ID, msg.Reason)
		if job, ok := m.job(msg.ID); ok {
			m.AddLogMessage("WARN", "Skipped "+job.Subject+": "+msg.Reason)
		}
		return m, nil

	case JobErrorMsg:
		m.FailJob(msg.ID, msg.Error)
		if job, ok := m.job(msg.ID); ok && msg.Error != nil {
			m.AddLogMessage("ERROR", "Failed "+job.Subject+": "+msg.Error.Error())
		}
		return m, nil

	case BatchDoneMsg:
		m.mu.Lock()
		m.finished = true
		m.mu.Unlock()
		m.AddLogMessage("SUCCESS", "Batch finished, press q to exit")
		return m, nil

	case RateLimitUpdateMsg:
		m.UpdateRateLimit(msg.Remaining, msg.Limit, msg.ResetAt)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) job(id string) (JobItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return JobItem{}, false
	}
	return *job, true
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.mu.Lock()
		m.showHelp = !m.showHelp
		m.mu.Unlock()
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
