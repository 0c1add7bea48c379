package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// Store reads and writes preferences to a JSON file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *logrus.Logger
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the preference file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the preference file. A missing, unreadable or corrupt file
// yields the defaults; the problem is logged, never returned.
func (s *Store) Load() Preferences {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithField("file", s.path).Warnf("Could not read preferences, using defaults: %v", err)
		}
		return DefaultPreferences()
	}

	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.WithField("file", s.path).Warnf("Could not parse preferences, using defaults: %v", err)
		return DefaultPreferences()
	}

	return prefs.sanitize()
}

// Save writes all fields of prefs. The file is replaced by rename so a crash
// never leaves a truncated document behind.
func (s *Store) Save(prefs Preferences) error {
	prefs = prefs.Clone()

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock preferences: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warnf("Could not release preferences lock: %v", err)
		}
	}()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp preferences: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp preferences: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp preferences: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace preferences: %w", err)
	}

	s.logger.WithField("file", s.path).Debug("Preferences saved")
	return nil
}
