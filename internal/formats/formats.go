package formats

import (
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDestination is the destination extension used when nothing else applies.
const DefaultDestination = "jpg"

// Encoder identifiers understood by the codec layer.
const (
	EncoderJPEG = "JPEG"
	EncoderPNG  = "PNG"
	EncoderWEBP = "WEBP"
	EncoderBMP  = "BMP"
	EncoderTIFF = "TIFF"
	EncoderAVIF = "AVIF"
	EncoderICO  = "ICO"
	EncoderTGA  = "TGA"
	EncoderGIF  = "GIF"
)

// catalog lists the destinations offered for each recognized source extension.
var catalog = map[string][]string{
	"png":  {"jpg", "webp", "bmp", "avif"},
	"bmp":  {"jpg", "png", "webp", "avif"},
	"webp": {"jpg", "png", "avif"},
	"tiff": {"jpg", "png", "avif"},
	"jpeg": {"png", "webp", "avif"},
	"jpg":  {"png", "webp", "avif"},
	"avif": {"jpg", "png"},
	"heic": {"jpg", "png"},
	"ico":  {"png", "jpg"},
	"tga":  {"jpg", "png"},
}

var encoderNames = map[string]string{
	"jpg":  EncoderJPEG,
	"jpeg": EncoderJPEG,
	"png":  EncoderPNG,
	"webp": EncoderWEBP,
	"bmp":  EncoderBMP,
	"tiff": EncoderTIFF,
	"avif": EncoderAVIF,
	"ico":  EncoderICO,
	"tga":  EncoderTGA,
	"gif":  EncoderGIF,
}

// supportedSources is the fixed allow-list for candidate files.
var supportedSources = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "bmp": {}, "webp": {},
	"tiff": {}, "avif": {}, "heic": {}, "ico": {}, "tga": {},
}

// AllowedDestinations returns the destinations offered for a source extension.
// Unknown extensions get the default destination only. The result is a copy.
func AllowedDestinations(sourceExt string) []string {
	dests, ok := catalog[normalize(sourceExt)]
	if !ok {
		return []string{DefaultDestination}
	}
	out := make([]string, len(dests))
	copy(out, dests)
	return out
}

// EncoderName maps a destination extension to its encoder identifier,
// falling back to the uppercased extension.
func EncoderName(destExt string) string {
	ext := normalize(destExt)
	if name, ok := encoderNames[ext]; ok {
		return name
	}
	return strings.ToUpper(ext)
}

// IsLossy reports whether the encoder accepts a quality setting.
func IsLossy(encoderName string) bool {
	switch strings.ToUpper(encoderName) {
	case EncoderJPEG, EncoderWEBP:
		return true
	default:
		return false
	}
}

// Extension returns the lowercase extension of path without the dot.
// Leading dots of the file name never start an extension, so ".hidden" has none.
func Extension(path string) string {
	base := filepath.Base(path)
	name := strings.TrimLeft(base, ".")
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimLeft(base, ".")
	ext := filepath.Ext(name)
	return base[:len(base)-len(ext)]
}

// IsSupportedSource reports whether the file name of path ends in one of the
// accepted source extensions. A name made of the extension alone, like ".png",
// is accepted too.
func IsSupportedSource(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	_, ok := supportedSources[name[i+1:]]
	return ok
}

// SourceExtensions returns the supported source extensions, sorted.
func SourceExtensions() []string {
	exts := make([]string, 0, len(supportedSources))
	for ext := range supportedSources {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// CatalogSources returns the source extensions that have catalog entries, sorted.
func CatalogSources() []string {
	exts := make([]string, 0, len(catalog))
	for ext := range catalog {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalize(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
