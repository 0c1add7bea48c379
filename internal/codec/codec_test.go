package codec

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
)

func sampleImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: uint8(x * 20)})
		}
	}
	return img
}

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		encoder string
		want    *Options
	}{
		{encoder: "JPEG", want: &Options{Quality: 70, Optimize: true}},
		{encoder: "WEBP", want: &Options{Quality: 70, Optimize: true}},
		{encoder: "PNG"},
		{encoder: "BMP"},
		{encoder: "TIFF"},
		{encoder: "AVIF"},
		{encoder: "ICO"},
		{encoder: "TGA"},
		{encoder: "XYZ"},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			got := OptionsFor(tt.encoder, 70)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected no options, got %+v", *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("OptionsFor(%s) = %v, want %+v", tt.encoder, got, *tt.want)
			}
		})
	}
}

func TestToRGBDropsAlphaAndKeepsColor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	got, err := ToRGB(src)
	if err != nil {
		t.Fatalf("ToRGB: %v", err)
	}

	want := []color.NRGBA{{R: 10, G: 20, B: 30, A: 255}, {R: 200, G: 100, B: 50, A: 255}}
	for x, w := range want {
		if c := got.NRGBAAt(x, 0); c != w {
			t.Errorf("pixel %d = %+v, want %+v", x, c, w)
		}
	}
	if src.NRGBAAt(0, 0).A != 0 {
		t.Error("source image was modified")
	}
}

func TestToRGBPaletted(t *testing.T) {
	palette := color.Palette{color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 0}}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	src.SetColorIndex(1, 0, 1)

	got, err := ToRGB(src)
	if err != nil {
		t.Fatalf("ToRGB: %v", err)
	}
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel 0 = %+v", c)
	}
	if c := got.NRGBAAt(1, 0); c.A != 255 {
		t.Errorf("pixel 1 alpha = %d, want 255", c.A)
	}
}

func TestToRGBEmpty(t *testing.T) {
	if _, err := ToRGB(image.NewNRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img, err := ToRGB(sampleImage(8, 6))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		encoder string
		ext     string
		opts    *Options
	}{
		{encoder: "JPEG", ext: "jpg", opts: OptionsFor("JPEG", 80)},
		{encoder: "PNG", ext: "png"},
		{encoder: "BMP", ext: "bmp"},
		{encoder: "TIFF", ext: "tiff"},
		{encoder: "TGA", ext: "tga"},
		{encoder: "GIF", ext: "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			path := filepath.Join(dir, "out."+tt.ext)
			n, err := WriteFile(path, img, tt.encoder, tt.opts)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Size() != n {
				t.Errorf("reported %d bytes, file has %d", n, info.Size())
			}

			decoded, err := Decode(path)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if decoded.Bounds().Dx() != 8 || decoded.Bounds().Dy() != 6 {
				t.Errorf("decoded bounds = %v", decoded.Bounds())
			}
		})
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := os.WriteFile(path, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteFile(path, sampleImage(2, 2), "PNG", nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := imaging.Open(path); err != nil {
		t.Fatalf("destination was not replaced with a PNG: %v", err)
	}
}

func TestWriteFileUnsupportedEncoder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xyz")

	_, err := WriteFile(path, sampleImage(2, 2), "XYZ", nil)
	if !errors.Is(err, ErrUnsupportedEncoder) {
		t.Fatalf("expected ErrUnsupportedEncoder, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}

func TestEncodeICOShrinksLargeImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.ico")
	if _, err := WriteFile(path, sampleImage(300, 150), "ICO", nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	decoded, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 256 || b.Dy() != 128 {
		t.Errorf("icon bounds = %v, want 256x128", b)
	}
}

func TestDecodeTGAByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.tga")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tga.Encode(f, sampleImage(4, 3)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v", b)
	}
}

func TestDecodeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.jpg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEncodersCoverCatalog(t *testing.T) {
	for _, name := range []string{"JPEG", "PNG", "WEBP", "BMP", "TIFF", "AVIF", "ICO", "TGA", "GIF"} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("no encoder registered for %s", name)
		}
	}
	if len(Encoders()) != 9 {
		t.Errorf("Encoders() = %v", Encoders())
	}
}

func TestDecodeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	if err := imaging.Save(sampleImage(12, 5), path); err != nil {
		t.Fatal(err)
	}

	cfg, err := DecodeConfig(path)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 12 || cfg.Height != 5 {
		t.Errorf("got %dx%d, want 12x5", cfg.Width, cfg.Height)
	}
}
