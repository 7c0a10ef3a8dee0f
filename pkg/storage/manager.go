package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager writes one result file per key into a directory and remembers
// which keys are already there, so batch runs can resume.
type Manager struct {
	outputDir string
	ext       string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the directory if needed and scans it for files ending
// in ext.
func NewManager(outputDir, ext string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		ext:       ext,
		saved:     make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, m.ext) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		m.saved[strings.TrimSuffix(name, m.ext)] = true
	}
	return nil
}

// Path returns the file a key is stored in.
func (m *Manager) Path(key string) string {
	return filepath.Join(m.outputDir, key+m.ext)
}

// IsSaved reports whether key has already been written.
func (m *Manager) IsSaved(key string) bool {
	m.mu.RLock()
	if m.saved[key] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	if _, err := os.Stat(m.Path(key)); err == nil {
		m.mu.Lock()
		m.saved[key] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// Save writes r to key's file through a temporary file and a rename, so a
// reader never sees a partial result.
func (m *Manager) Save(r io.Reader, key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	filename := m.Path(key)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[key] = true
	m.mu.Unlock()
	return nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of keys on disk
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
