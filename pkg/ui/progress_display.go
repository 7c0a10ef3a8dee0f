package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressDisplay is the line oriented Dashboard used when no TUI is wanted
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	status  *StatusTracker
	jobs    map[string]string
	verbose bool
}

// NewProgressDisplay creates a display for total subjects writing to out
func NewProgressDisplay(out io.Writer, total int, verbose bool) *ProgressDisplay {
	if out == nil {
		out = Output
	}
	return &ProgressDisplay{
		out:     out,
		status:  NewStatusTracker(total),
		jobs:    make(map[string]string),
		verbose: verbose,
	}
}

func (p *ProgressDisplay) StartJob(id, subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[id] = subject
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s\n", Magenta("→"), subject)
	}
}

func (p *ProgressDisplay) CompleteJob(id string, items int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.AddCompleted(items)
	fmt.Fprintf(p.out, "%s %s %s %s\n", Green("✓"), p.name(id), Dim(fmt.Sprintf("%d ids", items)), p.status.Bar())
}

func (p *ProgressDisplay) SkipJob(id, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.AddUnavailable()
	fmt.Fprintf(p.out, "%s %s %s %s\n", Yellow("–"), p.name(id), Dim(reason), p.status.Bar())
}

func (p *ProgressDisplay) FailJob(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.AddFailed()
	fmt.Fprintf(p.out, "%s %s %v %s\n", Red("✗"), p.name(id), err, p.status.Bar())
}

func (p *ProgressDisplay) UpdateRateLimit(remaining, limit int, resetAt time.Time) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %d/%d left, resets %s\n", Cyan("quota"), remaining, limit, resetAt.Format(time.Kitchen))
}

func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	p.log(Cyan("info"), format, args...)
}

func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.log(Yellow("warn"), format, args...)
}

func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.log(Red("error"), format, args...)
}

func (p *ProgressDisplay) log(level, format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", level, fmt.Sprintf(format, args...))
}

// Complete prints the batch summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.status.StartTime).Truncate(time.Second)
	fmt.Fprintf(p.out, "%s %s in %s\n", Green("done"), p.status.Summary(), elapsed)
}

// Status returns the counters behind the display
func (p *ProgressDisplay) Status() StatusTracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.status
}

func (p *ProgressDisplay) name(id string) string {
	if s, ok := p.jobs[id]; ok {
		return s
	}
	return id
}
