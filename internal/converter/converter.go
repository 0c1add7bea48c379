package converter

import (
	"fmt"
	"time"
)

// Stages at which a single item can fail.
const (
	StageDecode    = "decode"
	StageNormalize = "normalize"
	StageEncode    = "encode"
	StagePanic     = "panic"
)

// Outcome describes the result of converting a single file.
type Outcome struct {
	SourcePath      string
	DestinationPath string // empty unless Success
	EncoderName     string
	Success         bool
	Stage           string // failing stage, empty on success
	Error           string
	Err             error `json:"-"` // *ItemError, nil on success
	Warning         string
	BytesRead       int64
	BytesWritten    int64
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Sink receives one record per processed item, in input order.
type Sink interface {
	Success(sourcePath, destinationPath string)
	Failure(sourcePath, detail string)
}

// MetadataCopier copies metadata tags from a source image to its converted file.
type MetadataCopier interface {
	Copy(sourcePath, destinationPath string) error
}

// ProgressFunc is called after each item with its 1-based position.
type ProgressFunc func(done, total int, outcome Outcome)

// ItemError is the failure of one item at a given stage.
type ItemError struct {
	Stage string
	Path  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Succeeded counts successful outcomes.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Success {
			n++
		}
	}
	return n
}
