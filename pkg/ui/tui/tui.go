package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"roost/pkg/ui"
)

var _ ui.Dashboard = (*TUI)(nil)

// TUI is the full screen batch dashboard
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for total subjects collected by workers
func NewTUI(total, workers int) *TUI {
	model := NewModel(total, workers)
	program := tea.NewProgram(model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   model,
	}
}

// Start runs the TUI until the user quits
func (t *TUI) Start() error {
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) StartJob(id, subject string) {
	t.Send(JobStartMsg{ID: id, Subject: subject})
}

func (t *TUI) CompleteJob(id string, items int) {
	t.Send(JobCompleteMsg{ID: id, Items: items})
}

func (t *TUI) SkipJob(id, reason string) {
	t.Send(JobSkipMsg{ID: id, Reason: reason})
}

func (t *TUI) FailJob(id string, err error) {
	t.Send(JobErrorMsg{ID: id, Error: err})
}

// Done tells the dashboard the batch is over
func (t *TUI) Done() {
	t.Send(BatchDoneMsg{})
}

func (t *TUI) UpdateRateLimit(remaining, limit int, resetAt time.Time) {
	t.Send(RateLimitUpdateMsg{Remaining: remaining, Limit: limit, ResetAt: resetAt})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
