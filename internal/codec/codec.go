// Package codec decodes source images, normalizes them to opaque RGB and
// writes them with the encoder chosen by the planner.
package codec

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/heic"
	"github.com/gen2brain/webp"
	ico "github.com/sergeymakinen/go-ico"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"image-converter-go/internal/formats"
)

var (
	ErrUnsupportedEncoder = errors.New("unsupported encoder")
	ErrEmptyImage         = errors.New("image has no pixels")
)

// Options carries the extra parameters of lossy encoders.
type Options struct {
	Quality  int
	Optimize bool
}

// OptionsFor returns encode options for encoderName, or nil when the encoder
// has no quality knob.
func OptionsFor(encoderName string, quality int) *Options {
	if !formats.IsLossy(encoderName) {
		return nil
	}
	return &Options{Quality: quality, Optimize: true}
}

type decodeFunc func(io.Reader) (image.Image, error)

// decoders is keyed by source extension. TGA has no magic number, so content
// sniffing alone cannot find it.
var decoders = map[string]decodeFunc{
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"jpeg": jpeg.Decode,
	"bmp":  bmp.Decode,
	"tiff": tiff.Decode,
	"webp": webp.Decode,
	"avif": avif.Decode,
	"heic": heic.Decode,
	"ico":  ico.Decode,
	"tga":  tga.Decode,
}

// Decode reads the image at path using the decoder its extension names,
// falling back to content sniffing for misnamed files. The file is closed
// before Decode returns.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ext := formats.Extension(path)
	decode, ok := decoders[ext]
	if !ok {
		return imaging.Decode(f)
	}

	img, err := decode(f)
	if err == nil {
		return img, nil
	}
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		return nil, fmt.Errorf("decode %s: %w", ext, err)
	}
	if sniffed, sniffErr := imaging.Decode(f); sniffErr == nil {
		return sniffed, nil
	}
	return nil, fmt.Errorf("decode %s: %w", ext, err)
}

// ToRGB returns a copy of img with every pixel fully opaque. Palette and alpha
// information is discarded, the stored color is kept.
func ToRGB(img image.Image) (*image.NRGBA, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst, nil
}

type configFunc func(io.Reader) (image.Config, error)

var configDecoders = map[string]configFunc{
	"png":  png.DecodeConfig,
	"jpg":  jpeg.DecodeConfig,
	"jpeg": jpeg.DecodeConfig,
	"bmp":  bmp.DecodeConfig,
	"tiff": tiff.DecodeConfig,
	"webp": webp.DecodeConfig,
	"avif": avif.DecodeConfig,
	"heic": heic.DecodeConfig,
	"ico":  ico.DecodeConfig,
	"tga":  tga.DecodeConfig,
}

// DecodeConfig returns the dimensions and color model of the image at path
// without decoding its pixels.
func DecodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	ext := formats.Extension(path)
	decode, ok := configDecoders[ext]
	if !ok {
		cfg, _, err := image.DecodeConfig(f)
		return cfg, err
	}
	cfg, err := decode(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode %s header: %w", ext, err)
	}
	return cfg, nil
}
