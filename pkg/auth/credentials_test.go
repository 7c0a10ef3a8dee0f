package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials() Credentials {
	return Credentials{
		ConsumerKey:  "ck_1234567890",
		SecretKey:    "sk_1234567890",
		OToken:       "ot_1234567890",
		OTokenSecret: "os_1234567890",
	}
}

func writeProfile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, testCredentials().Validate())

	err := Credentials{ConsumerKey: "x", OToken: "y"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "secret_key")
	assert.Contains(t, err.Error(), "otoken_secret")
	assert.NotContains(t, err.Error(), "consumer_key")

	assert.True(t, Credentials{}.IsZero())
	assert.False(t, testCredentials().IsZero())
}

func TestManagerWithMockStore(t *testing.T) {
	manager, store := NewMockManager()

	p := &Profile{Name: "research", Credentials: testCredentials()}
	require.NoError(t, manager.Store(p))
	assert.False(t, p.LastModified.IsZero())

	got, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, testCredentials(), got.Credentials)

	profiles, err := manager.List()
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	require.NoError(t, manager.Delete("research"))
	assert.Equal(t, 0, store.Count())

	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, manager.Delete("research"), ErrCredentialsNotFound)
}

func TestManagerStoreRejectsIncomplete(t *testing.T) {
	manager, store := NewMockManager()

	err := manager.Store(&Profile{Name: "half", Credentials: Credentials{ConsumerKey: "x"}})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Error(t, manager.Store(&Profile{Credentials: testCredentials()}))
	assert.Equal(t, 0, store.Count())
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(&Profile{Name: "default", Credentials: testCredentials()}))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())

	_, err := manager.Retrieve("default")
	assert.NoError(t, err)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProfileDirStore(dir)
	require.NoError(t, err)
	manager := NewManagerWithStores(store)

	writeProfile(t, filepath.Join(dir, "default.profile"),
		`{"consumer_key":"a","secret_key":"b","otoken":"c","otoken_secret":"d"}`)
	writeProfile(t, filepath.Join(dir, "work.profile"),
		`{"consumer_key":"w1","secret_key":"w2","otoken":"w3","otoken_secret":"w4"}`)
	loose := filepath.Join(t.TempDir(), "loose.json")
	writeProfile(t, loose, `{"consumer_key":"l1","secret_key":"l2","otoken":"l3","otoken_secret":"l4"}`)
	broken := filepath.Join(t.TempDir(), "broken.profile")
	writeProfile(t, broken, `{"consumer_key":"only"}`)

	explicit := testCredentials()

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr error
	}{
		{"default profile", Source{}, "a", nil},
		{"named profile", Source{ProfileName: "work"}, "w1", nil},
		{"profile file", Source{ProfileFile: loose}, "l1", nil},
		{"explicit", Source{Explicit: &explicit}, explicit.ConsumerKey, nil},
		{"missing profile", Source{ProfileName: "nobody"}, "", ErrCredentialsNotFound},
		{"incomplete file", Source{ProfileFile: broken}, "", ErrInvalidCredentials},
		{"profile and file", Source{ProfileName: "work", ProfileFile: loose}, "", ErrConflictingSources},
		{"explicit and profile", Source{Explicit: &explicit, ProfileName: "work"}, "", ErrConflictingSources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := manager.Resolve(tt.src)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds.ConsumerKey)
		})
	}
}

func TestSanitize(t *testing.T) {
	p := &Profile{Name: "default", Credentials: Credentials{
		ConsumerKey:  "abcdefghijkl",
		SecretKey:    "short",
		OToken:       "123456789",
		OTokenSecret: "",
	}}

	s := Sanitize(p)
	assert.Equal(t, "default", s.Name)
	assert.Equal(t, "abcd...ijkl", s.Credentials.ConsumerKey)
	assert.Equal(t, "********", s.Credentials.SecretKey)
	assert.Equal(t, "1234...6789", s.Credentials.OToken)
	assert.Nil(t, Sanitize(nil))
	// original untouched
	assert.Equal(t, "short", p.Credentials.SecretKey)
}

func TestWriteSetupGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteSetupGuide(&buf, "/home/me/.roost")
	out := buf.String()
	assert.Contains(t, out, "/home/me/.roost/<profile>.profile")
	assert.Contains(t, out, EnvConsumerKey)
	assert.Contains(t, out, "otoken_secret")
}
