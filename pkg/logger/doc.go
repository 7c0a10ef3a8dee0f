// Package logger provides the structured logging interface used across roost.
//
// It wraps zerolog. Console output is colourised and written to stderr so
// that command output on stdout stays pipeable; a log file switches the
// output to JSON lines.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "client")
//	log.WarnWithFields("waiting before next request", map[string]interface{}{
//	    "reason": "rate_limit",
//	    "wait":   42 * time.Second,
//	})
//
// TestLogger captures messages in memory for assertions and NewNopLogger
// discards everything.
package logger
