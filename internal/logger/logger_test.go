package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestOutcomeLogFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewOutcomeLogWriter(&buf)

	log.Success("/in/a.png", "/out/a.jpg")
	log.Failure("/in/b.png", "decode png: bad\nheader")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	okLine := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} OK   /in/a\.png -> /out/a\.jpg$`)
	if !okLine.MatchString(lines[0]) {
		t.Errorf("unexpected success line %q", lines[0])
	}
	failLine := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} FAIL /in/b\.png: decode png: bad header$`)
	if !failLine.MatchString(lines[1]) {
		t.Errorf("unexpected failure line %q", lines[1])
	}
}

func TestOutcomeLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "conversion.log")

	for i := 0; i < 2; i++ {
		log, err := NewOutcomeLog(OutcomeLogConfig{FilePath: path, MaxSize: 1})
		if err != nil {
			t.Fatalf("NewOutcomeLog: %v", err)
		}
		log.Success("/in/a.png", "/out/a.jpg")
		if err := log.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("expected 2 lines after reopening, got %d", n)
	}
}

func TestNewOutcomeLogRequiresPath(t *testing.T) {
	if _, err := NewOutcomeLog(OutcomeLogConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := NewLogger(LoggerConfig{Level: "info", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	WithFileOperation(log, "/in/a.png", "convert").Info("converted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"message":"converted"`, `"file":"/in/a.png"`, `"operation":"convert"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log output %q missing %s", data, want)
		}
	}
}
