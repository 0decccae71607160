package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// StoreConfig locates the two persisted state blobs.
type StoreConfig struct {
	ModelPath  string `yaml:"model_path"`
	BanditPath string `yaml:"bandit_path"`
}

// DefaultStoreConfig stores state under ./state.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		ModelPath:  "state/preference_model.json",
		BanditPath: "state/bandit_stats.json",
	}
}

// Store owns the preference model and bandit stats for the process lifetime.
// State is lazily loaded on first use and flushed as a full overwrite on
// every mutation. All mutations happen under one mutex so a feedback event's
// clamp/increment sequence never interleaves with another.
type Store struct {
	cfg StoreConfig

	mu     sync.Mutex
	loaded bool
	model  Model
	bandit Bandit
}

// NewStore creates a store over the configured blob paths.
func NewStore(cfg StoreConfig) *Store {
	return &Store{cfg: cfg}
}

// Load reads both blobs. Missing files start empty; unknown tags default to
// zero weight and zero counters on first read, so the layout evolves without
// a schema version.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.model = Model{}
	s.bandit = Bandit{}

	if err := readBlob(s.cfg.ModelPath, &s.model); err != nil {
		return fmt.Errorf("failed to load preference model: %w", err)
	}
	if err := readBlob(s.cfg.BanditPath, &s.bandit); err != nil {
		return fmt.Errorf("failed to load bandit stats: %w", err)
	}

	// Re-clamp on load in case the blob was edited by hand.
	for tag, w := range s.model {
		s.model[tag] = clampWeight(w)
	}

	s.loaded = true
	log.Debug().Int("tags", len(s.model)).Msg("preference state loaded")
	return nil
}

// Model returns a copy of the current preference model.
func (s *Store) Model() (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make(Model, len(s.model))
	for k, v := range s.model {
		out[k] = v
	}
	return out, nil
}

// Bandit returns a copy of the current bandit stats.
func (s *Store) Bandit() (Bandit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make(Bandit, len(s.bandit))
	for k, v := range s.bandit {
		out[k] = v
	}
	return out, nil
}

// ApplyFeedback applies one like (+1) or skip (-1) event for an item's tags:
// each tag weight moves by delta*2 and clamps into [MinWeight, MaxWeight];
// positive feedback also increments the tag's success counter. The updated
// state is flushed before returning.
func (s *Store) ApplyFeedback(tags []string, delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("invalid feedback delta %d, want +1 or -1", delta)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	for _, tag := range dedupe(tags) {
		s.model[tag] = clampWeight(s.model[tag] + float64(delta)*2)
		st := s.bandit[tag]
		if delta > 0 {
			st.Success++
		}
		s.bandit[tag] = st
	}

	return s.flushLocked()
}

// RecordImpression counts one impression for an item's tags: each distinct
// tag gets shown+1 exactly once regardless of repetition in the tag list.
func (s *Store) RecordImpression(tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	for _, tag := range dedupe(tags) {
		st := s.bandit[tag]
		st.Shown++
		s.bandit[tag] = st
	}

	return s.flushLocked()
}

// RecordImpressions counts impressions for a served page of items.
func (s *Store) RecordImpressions(itemTags [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}

	for _, tags := range itemTags {
		for _, tag := range dedupe(tags) {
			st := s.bandit[tag]
			st.Shown++
			s.bandit[tag] = st
		}
	}

	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if err := writeBlob(s.cfg.ModelPath, s.model); err != nil {
		return fmt.Errorf("failed to flush preference model: %w", err)
	}
	if err := writeBlob(s.cfg.BanditPath, s.bandit); err != nil {
		return fmt.Errorf("failed to flush bandit stats: %w", err)
	}
	return nil
}

func readBlob(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func writeBlob(path string, src interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
