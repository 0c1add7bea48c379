package formats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAllowedDestinations(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want []string
	}{
		{name: "png", ext: "png", want: []string{"jpg", "webp", "bmp", "avif"}},
		{name: "uppercase with dot", ext: ".HEIC", want: []string{"jpg", "png"}},
		{name: "unknown", ext: "xyz", want: []string{"jpg"}},
		{name: "empty", ext: "", want: []string{"jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedDestinations(tt.ext)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AllowedDestinations(%q) mismatch (-want +got):\n%s", tt.ext, diff)
			}
		})
	}
}

func TestAllowedDestinationsReturnsCopy(t *testing.T) {
	got := AllowedDestinations("png")
	got[0] = "mutated"

	if AllowedDestinations("png")[0] != "jpg" {
		t.Fatal("catalog entry was mutated through the returned slice")
	}
}

func TestEveryCatalogDestinationHasEncoder(t *testing.T) {
	for _, src := range CatalogSources() {
		for _, dst := range AllowedDestinations(src) {
			if _, ok := encoderNames[dst]; !ok {
				t.Errorf("destination %q of %q has no encoder name", dst, src)
			}
		}
	}
}

func TestEncoderName(t *testing.T) {
	tests := map[string]string{
		"jpg":  "JPEG",
		"jpeg": "JPEG",
		"webp": "WEBP",
		"tga":  "TGA",
		"gif":  "GIF",
		"xyz":  "XYZ",
		"":     "",
	}
	for ext, want := range tests {
		if got := EncoderName(ext); got != want {
			t.Errorf("EncoderName(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestIsLossy(t *testing.T) {
	for _, name := range []string{"JPEG", "WEBP", "jpeg"} {
		if !IsLossy(name) {
			t.Errorf("expected %s to be lossy", name)
		}
	}
	for _, name := range []string{"PNG", "BMP", "TIFF", "AVIF", "ICO", "TGA", "XYZ"} {
		if IsLossy(name) {
			t.Errorf("expected %s not to be lossy", name)
		}
	}
}

func TestExtensionAndBaseName(t *testing.T) {
	tests := []struct {
		path     string
		wantExt  string
		wantBase string
	}{
		{path: "/photos/Cat.PNG", wantExt: "png", wantBase: "Cat"},
		{path: "/photos/archive.tar.tga", wantExt: "tga", wantBase: "archive.tar"},
		{path: "/photos/README", wantExt: "", wantBase: "README"},
		{path: "/photos/.hidden", wantExt: "", wantBase: ".hidden"},
		{path: "/photos/.hidden.jpg", wantExt: "jpg", wantBase: ".hidden"},
		{path: "/dir.d/noext", wantExt: "", wantBase: "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Extension(tt.path); got != tt.wantExt {
				t.Errorf("Extension = %q, want %q", got, tt.wantExt)
			}
			if got := BaseName(tt.path); got != tt.wantBase {
				t.Errorf("BaseName = %q, want %q", got, tt.wantBase)
			}
		})
	}
}

func TestIsSupportedSource(t *testing.T) {
	for _, p := range []string{"a.png", "b.JPG", "c.jpeg", "d.heic", "e.Tga", "f.ico", "/photos/.png", "/photos/.hidden.webp"} {
		if !IsSupportedSource(p) {
			t.Errorf("expected %s to be supported", p)
		}
	}
	for _, p := range []string{"a.gif", "b.txt", "noext", "c.tif", "/photos/.hidden", "png"} {
		if IsSupportedSource(p) {
			t.Errorf("expected %s to be rejected", p)
		}
	}
}

func TestSourceExtensions(t *testing.T) {
	want := []string{"avif", "bmp", "heic", "ico", "jpeg", "jpg", "png", "tga", "tiff", "webp"}
	if diff := cmp.Diff(want, SourceExtensions()); diff != "" {
		t.Errorf("SourceExtensions mismatch (-want +got):\n%s", diff)
	}
}
