package codec

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

// WriteFile encodes img with the named encoder and replaces path with the result.
// The bytes go to a temporary file next to path first, so a failed encode never
// leaves a half-written destination. It returns the number of bytes written.
func WriteFile(path string, img image.Image, encoderName string, opts *Options) (int64, error) {
	encode, ok := Lookup(encoderName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedEncoder, encoderName)
	}

	var buf bytes.Buffer
	if err := encode(&buf, img, opts); err != nil {
		return 0, fmt.Errorf("encode %s: %w", encoderName, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	n, err := tmp.Write(buf.Bytes())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("rename to destination: %w", err)
	}

	return int64(n), nil
}
