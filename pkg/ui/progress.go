package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker counts finished subjects of a batch
type StatusTracker struct {
	Total       int
	Completed   int
	Unavailable int
	Failed      int
	Items       int
	StartTime   time.Time
}

// NewStatusTracker creates a tracker for total subjects
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

func (st *StatusTracker) AddCompleted(items int) {
	st.Completed++
	st.Items += items
}

func (st *StatusTracker) AddUnavailable() { st.Unavailable++ }
func (st *StatusTracker) AddFailed()      { st.Failed++ }

// Done returns the number of subjects with any final state
func (st *StatusTracker) Done() int {
	return st.Completed + st.Unavailable + st.Failed
}

// Bar returns a fixed width progress bar of finished subjects
func (st *StatusTracker) Bar() string {
	const width = 20
	filled := 0
	if st.Total > 0 {
		filled = st.Done() * width / st.Total
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s] %d/%d",
		strings.Repeat(ProgressBar, filled)+strings.Repeat(ProgressEmpty, width-filled),
		st.Done(), st.Total)
}

// Rate returns subjects finished per minute
func (st *StatusTracker) Rate() float64 {
	elapsed := time.Since(st.StartTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Done()) / elapsed
}

// Summary is the one line report printed at the end of a batch
func (st *StatusTracker) Summary() string {
	parts := []string{fmt.Sprintf("%d collected", st.Completed)}
	if st.Unavailable > 0 {
		parts = append(parts, fmt.Sprintf("%d unavailable", st.Unavailable))
	}
	if st.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", st.Failed))
	}
	return fmt.Sprintf("%s, %d ids", strings.Join(parts, ", "), st.Items)
}
