package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ProfileExt is the file extension of plain profile files.
const ProfileExt = ".profile"

// ProfileDirStore keeps one JSON file per profile, <dir>/<name>.profile,
// holding consumer_key, secret_key, otoken and otoken_secret.
type ProfileDirStore struct {
	dir string
	mu  sync.RWMutex
}

// NewProfileDirStore creates the store, creating dir if needed
func NewProfileDirStore(dir string) (*ProfileDirStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("profile directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &ProfileDirStore{dir: dir}, nil
}

// Path returns the file backing profile name
func (s *ProfileDirStore) Path(name string) string {
	return filepath.Join(s.dir, name+ProfileExt)
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

func (s *ProfileDirStore) Store(p *Profile) error {
	if p == nil || !validName(p.Name) {
		return ErrInvalidCredentials
	}
	data, err := json.MarshalIndent(p.Credentials, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(p.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *ProfileDirStore) Retrieve(name string) (*Profile, error) {
	if !validName(name) {
		return nil, ErrInvalidCredentials
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LoadProfileFile(s.Path(name))
}

func (s *ProfileDirStore) List() ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ProfileExt))
	if err != nil {
		return nil, err
	}
	var profiles []*Profile
	for _, path := range matches {
		p, err := LoadProfileFile(path)
		if err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *ProfileDirStore) Delete(name string) error {
	if !validName(name) {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return err
	}
	return nil
}

func (s *ProfileDirStore) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}
