package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const outcomeTimeFormat = "2006-01-02 15:04:05"

// OutcomeLogConfig configures the per-item conversion log.
type OutcomeLogConfig struct {
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// OutcomeLog is an append-only, human-readable record of conversion results.
// Each item produces exactly one line.
type OutcomeLog struct {
	logger *logrus.Logger
	closer io.Closer
	mu     sync.Mutex
}

// NewOutcomeLog opens the log described by config. Existing content is kept.
func NewOutcomeLog(config OutcomeLogConfig) (*OutcomeLog, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("outcome log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, err
	}

	w := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
	l := NewOutcomeLogWriter(w)
	l.closer = w
	return l, nil
}

// NewOutcomeLogWriter returns an OutcomeLog writing to w.
func NewOutcomeLogWriter(w io.Writer) *OutcomeLog {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&outcomeFormatter{})
	return &OutcomeLog{logger: log}
}

// Success records a converted item.
func (l *OutcomeLog) Success(sourcePath, destinationPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.WithFields(logrus.Fields{
		"source":      sourcePath,
		"destination": destinationPath,
	}).Info()
}

// Failure records an item that could not be converted.
func (l *OutcomeLog) Failure(sourcePath, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.WithFields(logrus.Fields{
		"source": sourcePath,
		"detail": detail,
	}).Error()
}

// Close releases the underlying file, if any.
func (l *OutcomeLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// outcomeFormatter renders
//
//	2006-01-02 15:04:05 OK   /src.png -> /out/src.jpg
//	2006-01-02 15:04:05 FAIL /bad.png: decode png: ...
type outcomeFormatter struct{}

func (f *outcomeFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Time.Format(outcomeTimeFormat))

	source, _ := entry.Data["source"].(string)
	if entry.Level <= logrus.ErrorLevel {
		detail, _ := entry.Data["detail"].(string)
		fmt.Fprintf(&b, " FAIL %s: %s\n", source, oneLine(detail))
	} else {
		destination, _ := entry.Data["destination"].(string)
		fmt.Fprintf(&b, " OK   %s -> %s\n", source, destination)
	}
	return b.Bytes(), nil
}

func oneLine(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}
