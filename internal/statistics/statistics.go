package statistics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Statistics collects counters for one conversion batch.
type Statistics struct {
	TotalFiles     int64
	FilesProcessed int64
	FilesConverted int64
	FilesFailed    int64
	BytesRead      int64
	BytesWritten   int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []StatError

	mutex sync.RWMutex

	EncoderStats map[string]int64
}

// StatError represents an item that failed during a batch.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:    time.Now(),
		EncoderStats: make(map[string]int64),
		Errors:       make([]StatError, 0),
	}
}

// SetTotalFiles records how many items the batch will attempt.
func (s *Statistics) SetTotalFiles(n int) {
	atomic.StoreInt64(&s.TotalFiles, int64(n))
}

// RecordSuccess counts a converted item.
func (s *Statistics) RecordSuccess(encoderName string, bytesRead, bytesWritten int64) {
	atomic.AddInt64(&s.FilesProcessed, 1)
	atomic.AddInt64(&s.FilesConverted, 1)
	atomic.AddInt64(&s.BytesRead, bytesRead)
	atomic.AddInt64(&s.BytesWritten, bytesWritten)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.EncoderStats[encoderName]++
}

// RecordFailure counts a failed item and keeps its error.
func (s *Statistics) RecordFailure(filePath, operation, errorMsg string) {
	atomic.AddInt64(&s.FilesProcessed, 1)
	atomic.AddInt64(&s.FilesFailed, 1)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates duration and throughput.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := atomic.LoadInt64(&s.FilesProcessed)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// GetSummary returns a formatted summary of the batch.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return fmt.Sprintf(`Conversion Summary:

Files:
		Total: %d
		Processed: %d
		Converted: %d
		Failed: %d

Data:
		Read: %s
		Written: %s

Performance:
		Duration: %v
		Files/Second: %.2f`,
		atomic.LoadInt64(&s.TotalFiles),
		atomic.LoadInt64(&s.FilesProcessed),
		atomic.LoadInt64(&s.FilesConverted),
		atomic.LoadInt64(&s.FilesFailed),
		humanize.IBytes(uint64(atomic.LoadInt64(&s.BytesRead))),
		humanize.IBytes(uint64(atomic.LoadInt64(&s.BytesWritten))),
		s.Duration.Round(time.Millisecond),
		s.FilesPerSecond)
}

// GetEncoderBreakdown returns the number of files written per encoder.
func (s *Statistics) GetEncoderBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.EncoderStats) == 0 {
		return "No files written"
	}

	names := make([]string, 0, len(s.EncoderStats))
	for name := range s.EncoderStats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Encoder Breakdown:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %d\n", name, s.EncoderStats[name])
	}
	return b.String()
}

// GetErrorSummary returns the first errors of the batch.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during conversion"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			fmt.Fprintf(&b, "  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		fmt.Fprintf(&b, "  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return b.String()
}

// GetFilesConverted returns the number of converted items.
func (s *Statistics) GetFilesConverted() int64 {
	return atomic.LoadInt64(&s.FilesConverted)
}

// GetFilesFailed returns the number of failed items.
func (s *Statistics) GetFilesFailed() int64 {
	return atomic.LoadInt64(&s.FilesFailed)
}

// GetFilesProcessed returns the number of attempted items.
func (s *Statistics) GetFilesProcessed() int64 {
	return atomic.LoadInt64(&s.FilesProcessed)
}

// GetDuration returns the batch duration.
func (s *Statistics) GetDuration() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Duration
}
