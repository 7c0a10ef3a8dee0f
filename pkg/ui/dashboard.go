package ui

import "time"

// Dashboard reports batch collection progress. ProgressDisplay prints plain
// lines; tui.TUI draws a full screen view.
type Dashboard interface {
	StartJob(id, subject string)
	CompleteJob(id string, items int)
	SkipJob(id, reason string)
	FailJob(id string, err error)
	UpdateRateLimit(remaining, limit int, resetAt time.Time)
	LogInfo(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}
