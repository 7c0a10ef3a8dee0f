package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("appender is closed")

// Appender writes one record per line to the end of a file. Existing
// content is never rewritten.
type Appender struct {
	path  string
	file  *os.File
	count int64
	mu    sync.Mutex
}

// OpenAppender opens path for appending, creating it and its directory.
func OpenAppender(path string) (*Appender, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &Appender{path: path, file: f}, nil
}

// Append writes record followed by a newline. record must not contain a
// newline of its own.
func (a *Appender) Append(record []byte) error {
	if bytes.ContainsAny(record, "\r\n") {
		return fmt.Errorf("record spans more than one line")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return ErrClosed
	}

	line := make([]byte, 0, len(record)+1)
	line = append(line, record...)
	line = append(line, '\n')
	if _, err := a.file.Write(line); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	a.count++
	return nil
}

// Count returns the number of records appended through a.
func (a *Appender) Count() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *Appender) Path() string {
	return a.path
}

// Sync flushes the file to stable storage.
func (a *Appender) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return ErrClosed
	}
	return a.file.Sync()
}

// Close closes the file. Closing twice is a no-op.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}
