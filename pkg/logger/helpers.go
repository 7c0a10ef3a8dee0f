package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed API call at debug level.
func LogRequest(l Logger, requestID, endpoint string, status int, duration time.Duration) {
	l.DebugWithFields("api request completed", map[string]interface{}{
		"request_id": requestID,
		"endpoint":   endpoint,
		"status":     status,
		"duration":   duration,
	})
}

// LogWait logs a forced wait imposed by the rate or capacity tracker.
func LogWait(l Logger, reason string, wait time.Duration, now time.Time) {
	l.WarnWithFields("waiting before next request", map[string]interface{}{
		"reason": reason,
		"wait":   wait,
		"now":    now,
	})
}

// LogPage logs pagination progress.
func LogPage(l Logger, endpoint string, page int, collected int) {
	l.DebugWithFields("page collected", map[string]interface{}{
		"endpoint":  endpoint,
		"page":      page,
		"collected": collected,
	})
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                  {}
func (n nopLogger) Info(string)                                   {}
func (n nopLogger) Warn(string)                                   {}
func (n nopLogger) Error(string)                                  {}
func (n nopLogger) WithField(string, interface{}) Logger           { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n nopLogger) WithError(error) Logger                         { return n }
func (n nopLogger) WithContext(context.Context) Logger             { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n nopLogger) GetZerolog() *zerolog.Logger {
	z := zerolog.Nop()
	return &z
}
