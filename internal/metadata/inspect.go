package metadata

import (
	"fmt"
	"os"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/sirupsen/logrus"

	"image-converter-go/internal/codec"
	"image-converter-go/internal/formats"
)

// FileInspector reads image headers, EXIF tags and optionally exiftool output.
type FileInspector struct {
	logger      *logrus.Logger
	useExiftool bool
}

// NewFileInspector returns a FileInspector. When useExiftool is set, the
// exiftool binary is queried as well; its absence is logged, not fatal.
func NewFileInspector(logger *logrus.Logger, useExiftool bool) *FileInspector {
	return &FileInspector{
		logger:      logger,
		useExiftool: useExiftool,
	}
}

// Inspect returns what is known about the image at path. Only a missing or
// unreadable file is an error; absent EXIF data is not.
func (i *FileInspector) Inspect(path string) (*Info, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	ext := formats.Extension(path)
	info := &Info{
		Path:        path,
		Extension:   ext,
		Supported:   formats.IsSupportedSource(path),
		Size:        fileInfo.Size(),
		ModTime:     fileInfo.ModTime(),
		Destination: formats.AllowedDestinations(ext),
		EXIF:        map[string]string{},
		Exiftool:    map[string]string{},
	}

	if cfg, err := codec.DecodeConfig(path); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
		info.Format = formats.EncoderName(ext)
	} else {
		i.logger.Debugf("Could not read image header of %s: %v", path, err)
	}

	if tags, err := i.readEXIF(path); err == nil {
		info.EXIF = tags
	} else {
		i.logger.Debugf("No EXIF data in %s: %v", path, err)
	}

	if i.useExiftool {
		if tags, err := i.readExiftool(path); err == nil {
			info.Exiftool = tags
		} else {
			i.logger.Warnf("exiftool could not read %s: %v", path, err)
		}
	}

	return info, nil
}

// tagCollector gathers every EXIF field visited by exif.Walk.
type tagCollector map[string]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}

func (i *FileInspector) readEXIF(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	tags := tagCollector{}
	if err := x.Walk(tags); err != nil {
		return nil, fmt.Errorf("failed to walk EXIF: %w", err)
	}
	return tags, nil
}

func (i *FileInspector) readExiftool(path string) (map[string]string, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, err
	}
	defer et.Close()

	files := et.ExtractMetadata(path)
	if len(files) == 0 {
		return nil, fmt.Errorf("no metadata returned")
	}
	if files[0].Err != nil {
		return nil, files[0].Err
	}

	tags := make(map[string]string, len(files[0].Fields))
	for k, v := range files[0].Fields {
		tags[k] = fmt.Sprint(v)
	}
	return tags, nil
}
