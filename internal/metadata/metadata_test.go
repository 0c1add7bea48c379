package metadata

import (
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestInspectPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Shot.PNG")
	if err := imaging.Save(image.NewNRGBA(image.Rect(0, 0, 9, 7)), path, imaging.PNGCompressionLevel(0)); err != nil {
		t.Fatal(err)
	}

	info, err := NewFileInspector(testLogger(), false).Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if info.Format != "PNG" || info.Extension != "png" || !info.Supported {
		t.Errorf("unexpected format fields: %+v", info)
	}
	if info.Width != 9 || info.Height != 7 {
		t.Errorf("got %dx%d, want 9x7", info.Width, info.Height)
	}
	if info.Size == 0 {
		t.Error("size not recorded")
	}
	if diff := cmp.Diff([]string{"jpg", "webp", "bmp", "avif"}, info.Destination); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
	if len(info.EXIF) != 0 || len(info.Exiftool) != 0 {
		t.Errorf("expected no tags, got %v %v", info.EXIF, info.Exiftool)
	}
}

func TestInspectUnreadableImageIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := NewFileInspector(testLogger(), false).Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Supported || info.Format != "" || info.Width != 0 {
		t.Errorf("unexpected info for non-image: %+v", info)
	}
}

func TestInspectMissingFile(t *testing.T) {
	_, err := NewFileInspector(testLogger(), false).Inspect(filepath.Join(t.TempDir(), "none.jpg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestInspectDirectory(t *testing.T) {
	if _, err := NewFileInspector(testLogger(), false).Inspect(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}

func TestExiftoolCopierMissingBinary(t *testing.T) {
	c := NewExiftoolCopier("image-converter-no-such-exiftool")
	if c.Available() {
		t.Fatal("bogus binary reported as available")
	}
	err := c.Copy("a.png", "a.jpg")
	if !errors.Is(err, ErrExiftoolMissing) {
		t.Errorf("expected ErrExiftoolMissing, got %v", err)
	}
}

func TestNewExiftoolCopierDefault(t *testing.T) {
	if got := NewExiftoolCopier("").binary; got != DefaultExiftoolBinary {
		t.Errorf("binary = %q", got)
	}
}
