package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
)

type Store struct {
	Version   int                        `json:"version"`
	Documents map[string]json.RawMessage `json:"documents"`
}

// JSONStore keeps every document in a single JSON file. Each Get reads the
// file so that writes from other processes are visible immediately.
type JSONStore struct {
	path         string
	PollInterval time.Duration

	mu     sync.Mutex
	loaded bool
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path:         configPath,
		PollInterval: constants.DefaultPollInterval,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(&Store{Version: 1, Documents: map[string]json.RawMessage{}}); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Load() error {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (s *JSONStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}

	store, err := s.read()
	if err != nil {
		return nil, err
	}
	doc, ok := store.Documents[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(doc), nil
}

func (s *JSONStore) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("failed to serialize document %q: not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}

	store, err := s.read()
	if err != nil {
		return err
	}
	store.Documents[key] = json.RawMessage(bytes.Clone(value))
	return s.save(store)
}

// Watch polls the file for changes made by other processes.
func (s *JSONStore) Watch(ctx context.Context, onChange func(key string)) error {
	if onChange == nil {
		return fmt.Errorf("onChange callback required")
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	last, err := s.snapshot()
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, err := s.snapshot()
				if err != nil {
					logger.Warn("Failed to poll storage file", "path", s.path, "error", err)
					continue
				}
				for key, doc := range current {
					if prev, ok := last[key]; !ok || !bytes.Equal(prev, doc) {
						onChange(key)
					}
				}
				last = current
			}
		}
	}()
	return nil
}

func (s *JSONStore) snapshot() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.read()
	if err != nil {
		return nil, err
	}
	return store.Documents, nil
}

func (s *JSONStore) read() (*Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{Version: 1, Documents: map[string]json.RawMessage{}}, nil
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	store := &Store{}
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}
	if store.Documents == nil {
		store.Documents = map[string]json.RawMessage{}
	}
	return store, nil
}

// save writes through a temp file and rename so readers never see a
// partially written document.
func (s *JSONStore) save(store *Store) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}
