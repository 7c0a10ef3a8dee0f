package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, ".followers")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.OutputDir() != tempDir {
		t.Errorf("Expected output dir %s, got %s", tempDir, manager.OutputDir())
	}
	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}
	if manager.IsSaved("jack") {
		t.Error("Expected IsSaved to return false for missing key")
	}

	testData := []byte("12\n13\n")
	if err := manager.Save(bytes.NewReader(testData), "jack"); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "jack.followers")
	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be gone")
	}

	if !manager.IsSaved("jack") {
		t.Error("Expected IsSaved to return true after Save")
	}
	if manager.SavedCount() != 1 {
		t.Errorf("Expected saved count to be 1, got %d", manager.SavedCount())
	}

	// files written by someone else, plus ones that must be ignored
	os.WriteFile(filepath.Join(tempDir, "12.followers"), []byte("1\n"), 0644)
	os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tempDir, "half.followers.tmp"), []byte("x"), 0644)

	manager2, err := NewManager(tempDir, ".followers")
	if err != nil {
		t.Fatalf("Failed to create second manager: %v", err)
	}
	if manager2.SavedCount() != 2 {
		t.Errorf("Expected saved count to be 2 after scanning, got %d", manager2.SavedCount())
	}
	if !manager2.IsSaved("12") {
		t.Error("Expected scanned file to be detected")
	}
}

func TestManagerRejectsPathKeys(t *testing.T) {
	manager, err := NewManager(t.TempDir(), ".txt")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := manager.Save(strings.NewReader("x"), key); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}
