package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultProfile is the profile used when nothing else is selected.
const DefaultProfile = "default"

// Credentials are the four OAuth 1.0a secrets. They never change after load.
type Credentials struct {
	ConsumerKey  string `json:"consumer_key"`
	SecretKey    string `json:"secret_key"`
	OToken       string `json:"otoken"`
	OTokenSecret string `json:"otoken_secret"`
}

// Validate reports every missing field by its file key.
func (c Credentials) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if c.OToken == "" {
		missing = append(missing, "otoken")
	}
	if c.OTokenSecret == "" {
		missing = append(missing, "otoken_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// IsZero reports whether no field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Profile is a named set of credentials.
type Profile struct {
	Name         string      `json:"name"`
	Credentials  Credentials `json:"credentials"`
	LastModified time.Time   `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving profiles
type CredentialStore interface {
	Store(profile *Profile) error
	Retrieve(name string) (*Profile, error)
	List() ([]*Profile, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager builds the default store chain: profile directory, system
// keychain when available, encrypted file, then environment variables.
func NewManager(profileDir string) (*Manager, error) {
	profiles, err := NewProfileDirStore(profileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile directory: %w", err)
	}
	stores := []CredentialStore{profiles}

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	passphrase, err := ResolvePassphrase(profileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	encrypted, err := NewEncryptedFileStore(filepath.Join(profileDir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encrypted, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over an explicit store chain
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a profile using the first store that accepts it
func (m *Manager) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return errors.New("profile name is required")
	}
	if err := profile.Credentials.Validate(); err != nil {
		return err
	}
	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(profile); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// StoreSecure saves a profile in the first store that is not a plain profile file.
func (m *Manager) StoreSecure(profile *Profile) error {
	var secure []CredentialStore
	for _, store := range m.stores {
		if _, plain := store.(*ProfileDirStore); !plain {
			secure = append(secure, store)
		}
	}
	return (&Manager{stores: secure}).Store(profile)
}

// Retrieve gets a profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	for _, store := range m.stores {
		if p, err := store.Retrieve(name); err == nil && p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: profile %q", ErrCredentialsNotFound, name)
}

// List returns all profiles, newest copy per name, sorted by name
func (m *Manager) List() ([]*Profile, error) {
	byName := make(map[string]*Profile)
	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, p := range profiles {
			if existing, ok := byName[p.Name]; !ok || p.LastModified.After(existing.LastModified) {
				byName[p.Name] = p
			}
		}
	}

	result := make([]*Profile, 0, len(byName))
	for _, p := range byName {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes a profile from every store holding it
func (m *Manager) Delete(name string) error {
	var deleted bool
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: profile %q", ErrCredentialsNotFound, name)
	}
	return nil
}

// Source selects where credentials come from. At most one of Explicit,
// ProfileName and ProfileFile may be set; none means the default profile.
type Source struct {
	Explicit    *Credentials
	ProfileName string
	ProfileFile string
}

// Resolve loads the credentials described by src.
func (m *Manager) Resolve(src Source) (Credentials, error) {
	set := 0
	if src.Explicit != nil {
		set++
	}
	if src.ProfileName != "" {
		set++
	}
	if src.ProfileFile != "" {
		set++
	}
	if set > 1 {
		return Credentials{}, ErrConflictingSources
	}

	var creds Credentials
	switch {
	case src.Explicit != nil:
		creds = *src.Explicit
	case src.ProfileFile != "":
		p, err := LoadProfileFile(src.ProfileFile)
		if err != nil {
			return Credentials{}, err
		}
		creds = p.Credentials
	default:
		name := src.ProfileName
		if name == "" {
			name = DefaultProfile
		}
		p, err := m.Retrieve(name)
		if err != nil {
			return Credentials{}, err
		}
		creds = p.Credentials
	}

	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// LoadProfileFile reads a single profile file. The profile is named after the file.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
		}
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}

	p := &Profile{
		Name:        strings.TrimSuffix(filepath.Base(path), ProfileExt),
		Credentials: creds,
	}
	if info, err := os.Stat(path); err == nil {
		p.LastModified = info.ModTime()
	}
	return p, nil
}

// Sanitize returns a copy of the profile with secrets masked
func Sanitize(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		Name: p.Name,
		Credentials: Credentials{
			ConsumerKey:  maskString(p.Credentials.ConsumerKey),
			SecretKey:    maskString(p.Credentials.SecretKey),
			OToken:       maskString(p.Credentials.OToken),
			OTokenSecret: maskString(p.Credentials.OTokenSecret),
		},
		LastModified: p.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
	ErrConflictingSources  = errors.New("explicit keys, profile and profile file are mutually exclusive")
)
