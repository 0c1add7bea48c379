package codec

import (
	"image"
	"io"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	ico "github.com/sergeymakinen/go-ico"

	"image-converter-go/internal/formats"
)

// EncodeFunc writes img to w. opts is nil for encoders without a quality knob.
type EncodeFunc func(w io.Writer, img image.Image, opts *Options) error

// maxIconSize is the largest dimension an ICO entry can describe.
const maxIconSize = 256

const (
	webpMethodDefault  = 4
	webpMethodOptimize = 6
)

var encoders = map[string]EncodeFunc{
	formats.EncoderJPEG: encodeJPEG,
	formats.EncoderPNG:  encodeImaging(imaging.PNG),
	formats.EncoderBMP:  encodeImaging(imaging.BMP),
	formats.EncoderTIFF: encodeImaging(imaging.TIFF),
	formats.EncoderWEBP: encodeWEBP,
	formats.EncoderAVIF: encodeAVIF,
	formats.EncoderICO:  encodeICO,
	formats.EncoderTGA:  encodeTGA,
	formats.EncoderGIF:  encodeImaging(imaging.GIF),
}

// Lookup returns the encoder registered under name.
func Lookup(name string) (EncodeFunc, bool) {
	fn, ok := encoders[name]
	return fn, ok
}

// Encoders returns the registered encoder names, sorted.
func Encoders() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func encodeImaging(format imaging.Format) EncodeFunc {
	return func(w io.Writer, img image.Image, _ *Options) error {
		return imaging.Encode(w, img, format)
	}
}

// encodeJPEG has no optimize pass; image/jpeg always writes baseline Huffman tables.
func encodeJPEG(w io.Writer, img image.Image, opts *Options) error {
	quality := 95
	if opts != nil {
		quality = opts.Quality
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodeWEBP(w io.Writer, img image.Image, opts *Options) error {
	o := webp.Options{Quality: 75, Method: webpMethodDefault}
	if opts != nil {
		o.Quality = opts.Quality
		if opts.Optimize {
			o.Method = webpMethodOptimize
		}
	}
	return webp.Encode(w, img, o)
}

func encodeAVIF(w io.Writer, img image.Image, _ *Options) error {
	return avif.Encode(w, img)
}

// encodeICO shrinks images that do not fit an icon entry, keeping the aspect ratio.
func encodeICO(w io.Writer, img image.Image, _ *Options) error {
	b := img.Bounds()
	if b.Dx() > maxIconSize || b.Dy() > maxIconSize {
		img = imaging.Fit(img, maxIconSize, maxIconSize, imaging.Lanczos)
	}
	return ico.Encode(w, img)
}

func encodeTGA(w io.Writer, img image.Image, _ *Options) error {
	return tga.Encode(w, img)
}
