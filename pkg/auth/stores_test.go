package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDirStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProfileDirStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Profile{Name: "default", Credentials: testCredentials()}))
	assert.True(t, store.Exists("default"))

	// on-disk format is the bare four-key object
	raw, err := os.ReadFile(filepath.Join(dir, "default.profile"))
	require.NoError(t, err)
	var onDisk map[string]string
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, map[string]string{
		"consumer_key":  "ck_1234567890",
		"secret_key":    "sk_1234567890",
		"otoken":        "ot_1234567890",
		"otoken_secret": "os_1234567890",
	}, onDisk)

	info, err := os.Stat(filepath.Join(dir, "default.profile"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
	assert.Equal(t, testCredentials(), got.Credentials)
	assert.False(t, got.LastModified.IsZero())

	require.NoError(t, store.Store(&Profile{Name: "alt", Credentials: testCredentials()}))
	writeProfile(t, filepath.Join(dir, "junk.profile"), "not json")
	profiles, err := store.List()
	require.NoError(t, err)
	assert.Len(t, profiles, 2, "unparseable profiles are skipped")

	require.NoError(t, store.Delete("alt"))
	assert.ErrorIs(t, store.Delete("alt"), ErrCredentialsNotFound)
	assert.False(t, store.Exists("alt"))
}

func TestProfileDirStoreRejectsPathNames(t *testing.T) {
	store, err := NewProfileDirStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../escape", `a\b`} {
		assert.ErrorIs(t, store.Store(&Profile{Name: name, Credentials: testCredentials()}), ErrInvalidCredentials, name)
		_, err := store.Retrieve(name)
		assert.ErrorIs(t, err, ErrInvalidCredentials, name)
		assert.False(t, store.Exists(name))
	}

	_, err = NewProfileDirStore("")
	assert.Error(t, err)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "correct horse battery staple")
	require.NoError(t, err)

	p := &Profile{Name: "secure", Credentials: testCredentials()}
	require.NoError(t, store.Store(p))
	require.NoError(t, store.Store(&Profile{Name: "second", Credentials: testCredentials()}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ck_1234567890", "secrets must not be stored in clear text")

	got, err := store.Retrieve("secure")
	require.NoError(t, err)
	assert.Equal(t, testCredentials(), got.Credentials)

	profiles, err := store.List()
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	wrong, err := NewEncryptedFileStore(path, "wrong passphrase")
	require.NoError(t, err)
	_, err = wrong.Retrieve("secure")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("second"))
	require.NoError(t, store.Delete("secure"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store removes its file")

	_, err = store.Retrieve("secure")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	_, err = NewEncryptedFileStore(path, "")
	assert.Error(t, err)
}

func TestResolvePassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvPassphrase, "")
	first, err := ResolvePassphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := ResolvePassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "generated passphrase is persisted")

	t.Setenv(EnvPassphrase, "from-env")
	fromEnv, err := ResolvePassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", fromEnv)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvConsumerKey, "ck")
	t.Setenv(EnvSecretKey, "sk")
	t.Setenv(EnvOToken, "ot")
	t.Setenv(EnvOTokenSecret, "")
	assert.False(t, store.Exists("default"))
	_, err := store.Retrieve("default")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(EnvOTokenSecret, "os")
	assert.True(t, store.Exists("anything"))
	p, err := store.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)
	assert.Equal(t, Credentials{ConsumerKey: "ck", SecretKey: "sk", OToken: "ot", OTokenSecret: "os"}, p.Credentials)

	profiles, err := store.List()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "environment", profiles[0].Name)

	assert.ErrorIs(t, store.Store(p), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}

func TestManagerStoreSecureSkipsPlainFiles(t *testing.T) {
	plain, err := NewProfileDirStore(t.TempDir())
	require.NoError(t, err)
	secure := NewMockStore()
	manager := NewManagerWithStores(plain, secure)

	require.NoError(t, manager.StoreSecure(&Profile{Name: "default", Credentials: testCredentials()}))
	assert.False(t, plain.Exists("default"))
	assert.True(t, secure.Exists("default"))
}
