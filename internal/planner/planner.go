// Package planner decides where and how each source image is written.
package planner

import (
	"path/filepath"

	"image-converter-go/internal/formats"
)

// Resolver maps a source extension to a destination extension.
type Resolver interface {
	Resolve(sourceExt string) string
}

// Conversion is the resolved plan for a single source file.
type Conversion struct {
	SourcePath      string
	SourceExt       string
	DestinationExt  string
	EncoderName     string
	DestinationPath string
}

// Plan resolves the destination of sourcePath. It performs no I/O and never fails;
// outputDir is expected to have been validated by the caller.
func Plan(sourcePath, outputDir string, rules Resolver) Conversion {
	sourceExt := formats.Extension(sourcePath)
	destExt := rules.Resolve(sourceExt)

	return Conversion{
		SourcePath:      sourcePath,
		SourceExt:       sourceExt,
		DestinationExt:  destExt,
		EncoderName:     formats.EncoderName(destExt),
		DestinationPath: filepath.Join(outputDir, formats.BaseName(sourcePath)+"."+destExt),
	}
}
