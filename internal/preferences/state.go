package preferences

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"image-converter-go/internal/logger"
)

// State is the single owned preference record of a session. Every mutation
// is persisted in full before the call returns.
type State struct {
	store  *Store
	prefs  Preferences
	logger *logrus.Logger
}

// LoadState reads the preference file once and returns the owning State.
func LoadState(store *Store, log *logrus.Logger) *State {
	if log == nil {
		log = logrus.New()
	}
	return &State{
		store:  store,
		prefs:  store.Load(),
		logger: log,
	}
}

// Snapshot returns a copy that callers may read freely.
func (s *State) Snapshot() Preferences {
	return s.prefs.Clone()
}

// Resolve returns the destination extension for sourceExt.
func (s *State) Resolve(sourceExt string) string {
	return s.prefs.Rules.Resolve(sourceExt)
}

// OutputDir returns the configured output directory.
func (s *State) OutputDir() string {
	return s.prefs.OutputDir
}

// Quality returns the configured encode quality.
func (s *State) Quality() int {
	return s.prefs.Quality
}

// Rules returns a copy of the rule table.
func (s *State) Rules() Rules {
	return s.prefs.Rules.Clone()
}

// SetRule adds or replaces a rule and persists. Empty input is ignored and
// reported as unchanged.
func (s *State) SetRule(src, dst string) (bool, error) {
	if !s.prefs.Rules.Set(src, dst) {
		s.logger.WithFields(logrus.Fields{"source": src, "destination": dst}).Debug("Ignoring empty rule")
		return false, nil
	}
	return true, s.persist("set_rule")
}

// RemoveRule deletes a rule and persists. A missing rule is not an error.
func (s *State) RemoveRule(src string) (bool, error) {
	removed := s.prefs.Rules.Remove(src)
	return removed, s.persist("remove_rule")
}

// CommitQuality stores a new quality value and persists.
func (s *State) CommitQuality(q int) error {
	if !ValidQuality(q) {
		return fmt.Errorf("%w: got %d", ErrQualityOutOfRange, q)
	}
	s.prefs.Quality = q
	return s.persist("commit_quality")
}

// SetOutputDir stores a new output directory and persists.
func (s *State) SetOutputDir(dir string) error {
	s.prefs.OutputDir = strings.TrimSpace(dir)
	return s.persist("set_output_dir")
}

func (s *State) persist(operation string) error {
	if err := s.store.Save(s.prefs); err != nil {
		logger.WithOperation(s.logger, operation).
			WithField("path", s.store.Path()).
			Errorf("Failed to save preferences: %v", err)
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
