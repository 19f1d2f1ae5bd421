// Package keystore owns the AI API credential. The credential lives in a
// 0600-permission JSON file under the user config directory and is handed out
// only for the duration of one request; it is never logged. A read-only
// environment override (CHANGEKIT_API_KEY) serves CI and scripting.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/raveheart1/changekit/internal/validation"
)

// EnvKey is the read-only environment override for the credential.
const EnvKey = "CHANGEKIT_API_KEY"

const credentialField = "api_key"

// ErrNotFound is returned by Get when no credential is stored.
var ErrNotFound = errors.New("no API key stored; run 'changekit key set' first")

// Store is the credential storage contract injected into the suggestion
// engine: retrieve, replace, and idempotently delete a single secret.
type Store interface {
	Get() (string, error)
	Set(key string) error
	Delete() error
}

// FileStore is a Store backed by a JSON file. Writes are last-writer-wins;
// the mutex only serializes access within one process.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store rooted at the default user config location
// (~/.config/changekit/credentials.json).
func NewFileStore() (*FileStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving user config directory: %w", err)
	}
	return NewFileStoreAt(filepath.Join(configDir, "changekit", "credentials.json")), nil
}

// NewFileStoreAt returns a store backed by the given file path.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the stored credential. The environment override wins when set
// and well-formed; a malformed override is ignored rather than propagated.
func (s *FileStore) Get() (string, error) {
	if env := os.Getenv(EnvKey); env != "" && validation.IsValidAPIKeyFormat(env) {
		return env, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return "", err
	}
	key, ok := keys[credentialField]
	if !ok || key == "" {
		return "", ErrNotFound
	}
	return key, nil
}

// Set validates the credential format and persists it, replacing any
// previous value.
func (s *FileStore) Set(key string) error {
	if !validation.IsValidAPIKeyFormat(key) {
		return fmt.Errorf("API key must be 20-100 alphanumeric characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	keys[credentialField] = key
	return s.save(keys)
}

// Delete removes the stored credential. Deleting an absent credential is not
// an error.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := keys[credentialField]; !ok {
		return nil
	}
	delete(keys, credentialField)
	return s.save(keys)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}
	if keys == nil {
		keys = make(map[string]string)
	}
	return keys, nil
}

func (s *FileStore) save(keys map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}
