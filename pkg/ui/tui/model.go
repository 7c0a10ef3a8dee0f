package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// JobState is where a subject is in the batch
type JobState int

const (
	JobPending JobState = iota
	JobActive
	JobDone
	JobUnavailable
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobActive:
		return "active"
	case JobDone:
		return "done"
	case JobUnavailable:
		return "unavailable"
	case JobFailed:
		return "failed"
	}
	return "unknown"
}

// JobItem is one subject being collected
type JobItem struct {
	ID        string
	Subject   string
	Items     int
	State     JobState
	StartTime time.Time
	EndTime   time.Time
	Reason    string
	Error     error
}

// Model is the bubbletea model of the batch dashboard
type Model struct {
	spinner spinner.Model
	overall progress.Model

	jobs     map[string]*JobItem
	jobOrder []string
	total    int
	workers  int

	active      int
	done        int
	unavailable int
	failed      int
	totalItems  int
	finished    bool

	sessionStartTime time.Time

	rateLimitLimit     int
	rateLimitRemaining int
	rateLimitResetAt   time.Time

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a model for a batch of total subjects
func NewModel(total, workers int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(sky)

	return &Model{
		spinner:          s,
		overall:          progress.New(progress.WithDefaultGradient()),
		jobs:             make(map[string]*JobItem),
		total:            total,
		workers:          workers,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartJob marks a subject as being collected, adding it if unknown
func (m *Model) StartJob(id, subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		job = &JobItem{ID: id, Subject: subject}
		m.jobs[id] = job
		m.jobOrder = append(m.jobOrder, id)
	}
	if job.State != JobActive {
		m.active++
	}
	job.State = JobActive
	job.StartTime = time.Now()
}

// CompleteJob marks a subject as fully collected
func (m *Model) CompleteJob(id string, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job := m.finish(id, JobDone); job != nil {
		job.Items = items
		m.done++
		m.totalItems += items
	}
}

// SkipJob marks a subject whose account could not be read
func (m *Model) SkipJob(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job := m.finish(id, JobUnavailable); job != nil {
		job.Reason = reason
		m.unavailable++
	}
}

// FailJob marks a subject that ended with an error
func (m *Model) FailJob(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job := m.finish(id, JobFailed); job != nil {
		job.Error = err
		m.failed++
	}
}

// finish moves an active job to a final state. It returns nil for unknown
// or already finished jobs. Callers hold mu.
func (m *Model) finish(id string, state JobState) *JobItem {
	job, ok := m.jobs[id]
	if !ok || job.State != JobActive {
		return nil
	}
	job.State = state
	job.EndTime = time.Now()
	m.active--
	return job
}

// UpdateRateLimit updates the rate limit status
func (m *Model) UpdateRateLimit(remaining, limit int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rateLimitRemaining = remaining
	m.rateLimitLimit = limit
	m.rateLimitResetAt = resetAt
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   logColor(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Jobs returns copies of the jobs in a state, in start order
func (m *Model) Jobs(state JobState) []JobItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobsLocked(state)
}

func (m *Model) jobsLocked(state JobState) []JobItem {
	var out []JobItem
	for _, id := range m.jobOrder {
		if job := m.jobs[id]; job != nil && job.State == state {
			out = append(out, *job)
		}
	}
	return out
}

// Finished reports whether the batch has ended
func (m *Model) Finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished
}

// percent is the finished share of the batch. Callers hold mu.
func (m *Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.done+m.unavailable+m.failed) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

// eta estimates the time left from the average time per finished subject.
// Callers hold mu.
func (m *Model) eta() time.Duration {
	finished := m.done + m.unavailable + m.failed
	pending := m.total - finished
	if finished == 0 || pending <= 0 {
		return 0
	}
	perJob := time.Since(m.sessionStartTime) / time.Duration(finished)
	return perJob * time.Duration(pending)
}
