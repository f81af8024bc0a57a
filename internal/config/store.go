package config

import (
	"encoding/json"
	"fmt"
)

// Store is the consumer interface spec.md §6 names: a key-value map of
// string to JSON the core treats as an opaque external collaborator.
// Desktop-shell plumbing, the embedded KV store, and SQL migrations that
// would sit behind a concrete implementation are explicitly out of scope
// (spec.md §1); internal/fileconfig supplies the one concrete adapter
// this repo ships.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// analyzerConfigKeyPrefix namespaces AnalyzerConfig keys within the
// shared key-value Store.
const analyzerConfigKeyPrefix = "analyzer_config:"

// AnalyzerConfigStore adapts a raw Store into typed AnalyzerConfig
// get/set operations, per spec.md §10 (Config Store Adapter).
type AnalyzerConfigStore struct {
	store Store
}

// NewAnalyzerConfigStore wraps store.
func NewAnalyzerConfigStore(store Store) *AnalyzerConfigStore {
	return &AnalyzerConfigStore{store: store}
}

// Get loads the AnalyzerConfig for id, or ok=false if absent.
func (s *AnalyzerConfigStore) Get(id string) (AnalyzerConfig, bool, error) {
	raw, ok, err := s.store.Get(analyzerConfigKeyPrefix + id)
	if err != nil {
		return AnalyzerConfig{}, false, fmt.Errorf("load analyzer config %q: %w", id, err)
	}
	if !ok {
		return AnalyzerConfig{}, false, nil
	}
	var cfg AnalyzerConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AnalyzerConfig{}, false, fmt.Errorf("decode analyzer config %q: %w", id, err)
	}
	return cfg, true, nil
}

// Set persists cfg under its own ID.
func (s *AnalyzerConfigStore) Set(cfg AnalyzerConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode analyzer config %q: %w", cfg.ID, err)
	}
	if err := s.store.Set(analyzerConfigKeyPrefix+cfg.ID, raw); err != nil {
		return fmt.Errorf("persist analyzer config %q: %w", cfg.ID, err)
	}
	return nil
}

// List enumerates every AnalyzerConfig key known to ids and loads each.
// The underlying Store has no native enumeration operation (spec.md §6
// treats it as opaque get/set), so the known-analyzer-id list is supplied
// by the caller — the supervisor's own config, per spec.md §4.7's "one
// per known analyzer model" boot sweep.
func (s *AnalyzerConfigStore) List(ids []string) ([]AnalyzerConfig, error) {
	configs := make([]AnalyzerConfig, 0, len(ids))
	for _, id := range ids {
		cfg, ok, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if ok {
			configs = append(configs, cfg)
		}
	}
	return configs, nil
}
