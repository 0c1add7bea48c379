// Package session holds the state a front end works against: the candidate
// list, the preference record and the command handlers that mutate them.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"image-converter-go/internal/converter"
	"image-converter-go/internal/formats"
	"image-converter-go/internal/history"
	"image-converter-go/internal/logger"
	"image-converter-go/internal/preferences"
	"image-converter-go/internal/statistics"
)

// CompletionMessage is reported after every batch, whatever its failure count.
const CompletionMessage = "Conversion finished"

var (
	ErrNoImages    = errors.New("no images selected")
	ErrNoOutputDir = errors.New("no output directory selected")
	ErrBusy        = errors.New("a conversion is already running")
)

// Recorder stores finished runs.
type Recorder interface {
	Record(run history.Run) error
}

// Rejection explains why a path was not added to the candidate list.
type Rejection struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is what a front end receives when a batch ends.
type Result struct {
	RunID      string
	Message    string
	Outcomes   []converter.Outcome
	Statistics *statistics.Statistics
}

// Succeeded returns the number of converted files.
func (r *Result) Succeeded() int {
	return converter.Succeeded(r.Outcomes)
}

// Failed returns the number of files that could not be converted.
func (r *Result) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Session is safe for use by several goroutines; commands are serialized.
// mu guards the candidate list and the preference record only, never a
// running batch. While a batch runs every mutating command fails with ErrBusy.
type Session struct {
	mu         sync.Mutex
	running    atomic.Bool
	state      *preferences.State
	candidates []string
	seen       map[string]struct{}

	logger   *logrus.Logger
	sink     converter.Sink
	recorder Recorder
	metadata converter.MetadataCopier
}

// Option configures a Session.
type Option func(*Session)

// WithSink sets the outcome log handed to every batch.
func WithSink(s converter.Sink) Option {
	return func(sess *Session) { sess.sink = s }
}

// WithRecorder stores each finished batch.
func WithRecorder(r Recorder) Option {
	return func(sess *Session) { sess.recorder = r }
}

// WithMetadataCopier copies tags onto converted files.
func WithMetadataCopier(m converter.MetadataCopier) Option {
	return func(sess *Session) { sess.metadata = m }
}

// New returns a Session owning state.
func New(state *preferences.State, log *logrus.Logger, opts ...Option) *Session {
	if log == nil {
		log = logrus.New()
	}
	s := &Session{
		state:  state,
		seen:   make(map[string]struct{}),
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCandidates appends every existing image file not already listed.
// Paths are made absolute first; duplicates are dropped silently.
func (s *Session) AddCandidates(paths ...string) (added []string, rejected []Rejection, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return nil, nil, ErrBusy
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			rejected = append(rejected, Rejection{Path: p, Reason: err.Error()})
			continue
		}
		if !formats.IsSupportedSource(abs) {
			rejected = append(rejected, Rejection{Path: abs, Reason: "unsupported file type"})
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			rejected = append(rejected, Rejection{Path: abs, Reason: "file not found"})
			continue
		}
		if !info.Mode().IsRegular() {
			rejected = append(rejected, Rejection{Path: abs, Reason: "not a regular file"})
			continue
		}
		if _, dup := s.seen[abs]; dup {
			continue
		}
		s.seen[abs] = struct{}{}
		s.candidates = append(s.candidates, abs)
		added = append(added, abs)
	}

	if len(added) > 0 {
		s.logger.WithField("count", len(added)).Debug("Added candidates")
	}
	return added, rejected, nil
}

// Candidates returns the candidate list in insertion order.
func (s *Session) Candidates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.candidates...)
}

// ClearCandidates empties the candidate list.
func (s *Session) ClearCandidates() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return ErrBusy
	}
	s.candidates = nil
	s.seen = make(map[string]struct{})
	return nil
}

// Running reports whether a batch is in progress.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Preferences returns a copy of the current preferences.
func (s *Session) Preferences() preferences.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// OnRuleAdded stores a conversion rule. Empty input changes nothing.
func (s *Session) OnRuleAdded(src, dst string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return false, ErrBusy
	}
	return s.state.SetRule(src, dst)
}

// OnRuleRemoved deletes the rule for src.
func (s *Session) OnRuleRemoved(src string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return false, ErrBusy
	}
	return s.state.RemoveRule(src)
}

// OnQualityCommitted stores the quality once the user settles on a value.
func (s *Session) OnQualityCommitted(q int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return ErrBusy
	}
	return s.state.CommitQuality(q)
}

// OnOutputDirChosen stores the output directory as an absolute path.
func (s *Session) OnOutputDirChosen(dir string) error {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		dir = abs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Running() {
		return ErrBusy
	}
	return s.state.SetOutputDir(dir)
}

// Ready reports whether Convert would start a batch now.
func (s *Session) Ready() error {
	if s.Running() {
		return ErrBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready()
}

func (s *Session) ready() error {
	if len(s.candidates) == 0 {
		return ErrNoImages
	}
	if s.state.OutputDir() == "" {
		return ErrNoOutputDir
	}
	return nil
}

// Convert runs one batch over the candidate list. It blocks until every item
// has been attempted. Item failures are part of the Result, not the error.
// Reads stay available while the batch runs.
func (s *Session) Convert(progress converter.ProgressFunc) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	prefs := s.state.Snapshot()
	candidates := append([]string(nil), s.candidates...)
	s.mu.Unlock()

	runID := uuid.New().String()
	log := logger.WithRun(s.logger, runID)
	startedAt := time.Now()

	stats := statistics.NewStatistics()
	opts := []converter.Option{converter.WithStatistics(stats)}
	if s.sink != nil {
		opts = append(opts, converter.WithSink(s.sink))
	}
	if s.metadata != nil {
		opts = append(opts, converter.WithMetadataCopier(s.metadata))
	}
	if progress != nil {
		opts = append(opts, converter.WithProgress(progress))
	}

	outcomes := converter.NewBatchConverter(s.logger, opts...).Run(candidates, prefs.OutputDir, prefs.Quality, prefs.Rules)

	if s.recorder != nil {
		run := history.NewRun(runID, prefs.OutputDir, prefs.Quality, startedAt, outcomes)
		if err := s.recorder.Record(run); err != nil {
			log.Warnf("Could not record run history: %v", err)
		}
	}

	log.WithFields(logrus.Fields{
		"converted": stats.GetFilesConverted(),
		"failed":    stats.GetFilesFailed(),
	}).Info(CompletionMessage)

	return &Result{
		RunID:      runID,
		Message:    CompletionMessage,
		Outcomes:   outcomes,
		Statistics: stats,
	}, nil
}
