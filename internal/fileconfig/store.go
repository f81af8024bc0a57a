package fileconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a JSON-file-backed implementation of config.Store — the
// reference ConfigStore SPEC_FULL.md §3 names as standing in for the
// desktop-shell KV store spec.md §1 excludes. Grounded on
// marmos91-dittofs/internal/cli/credentials/store.go's load-on-open,
// save-on-write JSON file pattern, generalized from a fixed Config
// struct to an opaque string-keyed byte map.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// NewStore opens (or initializes) a JSON document at path as a Store.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}
	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &s.data)
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config store directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write config store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Get implements config.Store.
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

// Set implements config.Store, persisting the whole document to disk on
// every write — acceptable at this service's scale (a handful of
// analyzer entries), matching credentials.Store's own save-per-write
// approach.
func (s *Store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = json.RawMessage(value)
	return s.save()
}

// Keys returns every key currently stored, for diagnostics.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
