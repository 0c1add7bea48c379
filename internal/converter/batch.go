package converter

import (
	"fmt"
	"os"
	"time"

	"image-converter-go/internal/codec"
	"image-converter-go/internal/logger"
	"image-converter-go/internal/planner"
	"image-converter-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// BatchConverter converts candidate files one after another. A failing item
// is recorded and the batch moves on to the next one.
type BatchConverter struct {
	logger   *logrus.Logger
	sink     Sink
	stats    *statistics.Statistics
	metadata MetadataCopier
	progress ProgressFunc
}

// Option configures a BatchConverter.
type Option func(*BatchConverter)

// WithSink sets the outcome log.
func WithSink(s Sink) Option {
	return func(c *BatchConverter) { c.sink = s }
}

// WithStatistics sets the counters updated by Run.
func WithStatistics(s *statistics.Statistics) Option {
	return func(c *BatchConverter) { c.stats = s }
}

// WithMetadataCopier enables copying metadata tags to converted files.
func WithMetadataCopier(m MetadataCopier) Option {
	return func(c *BatchConverter) { c.metadata = m }
}

// WithProgress sets a callback invoked after each item.
func WithProgress(fn ProgressFunc) Option {
	return func(c *BatchConverter) { c.progress = fn }
}

// NewBatchConverter returns a BatchConverter.
func NewBatchConverter(log *logrus.Logger, opts ...Option) *BatchConverter {
	if log == nil {
		log = logrus.New()
	}
	c := &BatchConverter{logger: log}
	for _, opt := range opts {
		opt(c)
	}
	if c.stats == nil {
		c.stats = statistics.NewStatistics()
	}
	return c
}

// Statistics returns the counters of the last run.
func (c *BatchConverter) Statistics() *statistics.Statistics {
	return c.stats
}

// Run converts every candidate in order and returns one outcome per candidate.
// The caller guarantees a non-empty list and output directory.
func (c *BatchConverter) Run(candidates []string, outputDir string, quality int, rules planner.Resolver) []Outcome {
	total := len(candidates)
	c.stats.SetTotalFiles(total)
	c.logger.WithFields(logrus.Fields{
		"files":      total,
		"output_dir": outputDir,
		"quality":    quality,
	}).Info("Starting conversion batch")

	outcomes := make([]Outcome, 0, total)
	for i, path := range candidates {
		outcome := c.convertOne(path, outputDir, quality, rules)
		c.record(outcome)
		outcomes = append(outcomes, outcome)

		if c.progress != nil {
			c.progress(i+1, total, outcome)
		}
	}

	c.stats.Finalize()
	c.logger.WithFields(logrus.Fields{
		"converted": c.stats.GetFilesConverted(),
		"failed":    c.stats.GetFilesFailed(),
	}).Info("Conversion batch completed")
	return outcomes
}

// convertOne never returns an error; every failure, including a codec panic,
// ends up in the outcome.
func (c *BatchConverter) convertOne(path, outputDir string, quality int, rules planner.Resolver) (outcome Outcome) {
	plan := planner.Plan(path, outputDir, rules)
	outcome = Outcome{
		SourcePath:  path,
		EncoderName: plan.EncoderName,
		StartedAt:   time.Now(),
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = failed(outcome, &ItemError{Stage: StagePanic, Path: path, Err: fmt.Errorf("%v", r)})
		}
		outcome.FinishedAt = time.Now()
	}()

	log := logger.WithFileOperation(c.logger, path, "convert")
	log.WithFields(logrus.Fields{
		"destination": plan.DestinationPath,
		"encoder":     plan.EncoderName,
	}).Debug("Planned conversion")

	if info, err := os.Stat(path); err == nil {
		outcome.BytesRead = info.Size()
	}

	img, err := codec.Decode(path)
	if err != nil {
		return failed(outcome, &ItemError{Stage: StageDecode, Path: path, Err: err})
	}

	rgb, err := codec.ToRGB(img)
	if err != nil {
		return failed(outcome, &ItemError{Stage: StageNormalize, Path: path, Err: err})
	}

	opts := codec.OptionsFor(plan.EncoderName, quality)
	n, err := codec.WriteFile(plan.DestinationPath, rgb, plan.EncoderName, opts)
	if err != nil {
		return failed(outcome, &ItemError{Stage: StageEncode, Path: path, Err: err})
	}

	outcome.Success = true
	outcome.DestinationPath = plan.DestinationPath
	outcome.BytesWritten = n

	if c.metadata != nil {
		if err := c.metadata.Copy(path, plan.DestinationPath); err != nil {
			outcome.Warning = fmt.Sprintf("metadata not copied: %v", err)
			log.Warnf("Could not copy metadata to %s: %v", plan.DestinationPath, err)
		}
	}

	return outcome
}

func failed(outcome Outcome, err *ItemError) Outcome {
	outcome.Success = false
	outcome.DestinationPath = ""
	outcome.Stage = err.Stage
	outcome.Error = fmt.Sprintf("%s: %v", err.Stage, err.Err)
	outcome.Err = err
	return outcome
}

func (c *BatchConverter) record(o Outcome) {
	log := logger.WithFile(c.logger, o.SourcePath)
	if o.Success {
		c.stats.RecordSuccess(o.EncoderName, o.BytesRead, o.BytesWritten)
		log.Infof("Converted file: %s -> %s", o.SourcePath, o.DestinationPath)
		if c.sink != nil {
			c.sink.Success(o.SourcePath, o.DestinationPath)
		}
		return
	}

	c.stats.RecordFailure(o.SourcePath, o.Stage, o.Error)
	log.Errorf("Could not convert file %s: %s", o.SourcePath, o.Error)
	if c.sink != nil {
		c.sink.Failure(o.SourcePath, o.Error)
	}
}
