package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore.
const (
	EnvConsumerKey  = "ROOST_CONSUMER_KEY"
	EnvSecretKey    = "ROOST_SECRET_KEY"
	EnvOToken       = "ROOST_OTOKEN"
	EnvOTokenSecret = "ROOST_OTOKEN_SECRET"
)

// EnvironmentStore is a read-only store backed by ROOST_* variables. It
// answers for any profile name.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Profile) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) credentials() (Credentials, bool) {
	c := Credentials{
		ConsumerKey:  os.Getenv(EnvConsumerKey),
		SecretKey:    os.Getenv(EnvSecretKey),
		OToken:       os.Getenv(EnvOToken),
		OTokenSecret: os.Getenv(EnvOTokenSecret),
	}
	return c, c.Validate() == nil
}

func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	creds, ok := e.credentials()
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = "environment"
	}
	return &Profile{Name: name, Credentials: creds, LastModified: time.Now()}, nil
}

func (e *EnvironmentStore) List() ([]*Profile, error) {
	p, err := e.Retrieve("")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{p}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(string) bool {
	_, ok := e.credentials()
	return ok
}
