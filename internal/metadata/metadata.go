// Package metadata reads descriptive information from image files and copies
// metadata tags onto converted files.
package metadata

import (
	"time"
)

// Info describes a single image file.
type Info struct {
	Path        string
	Format      string
	Extension   string
	Supported   bool
	Width       int
	Height      int
	Size        int64
	ModTime     time.Time
	Destination []string

	// EXIF holds tags read with goexif, keyed by tag name.
	EXIF map[string]string
	// Exiftool holds tags reported by the exiftool binary when it is enabled.
	Exiftool map[string]string
}

// Inspector reads Info for a path.
type Inspector interface {
	Inspect(path string) (*Info, error)
}

// Copier copies metadata from a source image onto a converted file.
type Copier interface {
	Copy(sourcePath, destinationPath string) error
}
