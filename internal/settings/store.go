package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrCorrupt is returned by Load when the settings file exists but cannot
// be decoded. The returned value holds the defaults.
var ErrCorrupt = errors.New("settings file is corrupt")

// sanitizer is implemented by settings types that repair values after
// loading. It returns a description of every value it changed.
type sanitizer interface {
	Sanitize() []string
}

// Store reads and writes one settings document of type T.
type Store[T any] struct {
	path     string
	defaults func() T
	mu       sync.Mutex
}

// NewStore creates a store for the JSON file at path. defaults supplies
// the values used for missing files, missing keys and corrupt files.
func NewStore[T any](path string, defaults func() T) *Store[T] {
	return &Store[T]{path: path, defaults: defaults}
}

// Path returns the settings file location.
func (s *Store[T]) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields the defaults and no
// error. An unreadable or corrupt file yields the defaults together with
// an error the caller is expected to log as a warning. Keys absent from
// the file keep their default values and unknown keys are ignored.
func (s *Store[T]) Load() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return v, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return s.defaults(), fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if sv, ok := any(&v).(sanitizer); ok {
		for _, msg := range sv.Sanitize() {
			log.Warn("Adjusted saved setting", "path", s.path, "change", msg)
		}
	}
	return v, nil
}

// Save overwrites the settings file with v. The document is written to a
// temporary file first and renamed into place.
func (s *Store[T]) Save(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
