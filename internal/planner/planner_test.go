package planner

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"image-converter-go/internal/preferences"
)

func TestPlan(t *testing.T) {
	rules := preferences.Rules{"png": "webp", "heic": "png", "bmp": "xyz"}
	out := filepath.Join("/", "out")

	tests := []struct {
		name   string
		source string
		want   Conversion
	}{
		{
			name:   "rule applies",
			source: "/in/Cat.PNG",
			want: Conversion{
				SourcePath:      "/in/Cat.PNG",
				SourceExt:       "png",
				DestinationExt:  "webp",
				EncoderName:     "WEBP",
				DestinationPath: filepath.Join(out, "Cat.webp"),
			},
		},
		{
			name:   "no rule uses default",
			source: "/in/shot.tiff",
			want: Conversion{
				SourcePath:      "/in/shot.tiff",
				SourceExt:       "tiff",
				DestinationExt:  "jpg",
				EncoderName:     "JPEG",
				DestinationPath: filepath.Join(out, "shot.jpg"),
			},
		},
		{
			name:   "no extension",
			source: "/in/README",
			want: Conversion{
				SourcePath:      "/in/README",
				SourceExt:       "",
				DestinationExt:  "jpg",
				EncoderName:     "JPEG",
				DestinationPath: filepath.Join(out, "README.jpg"),
			},
		},
		{
			name:   "file named after its extension keeps the whole name",
			source: "/in/.png",
			want: Conversion{
				SourcePath:      "/in/.png",
				SourceExt:       "",
				DestinationExt:  "jpg",
				EncoderName:     "JPEG",
				DestinationPath: filepath.Join(out, ".png.jpg"),
			},
		},
		{
			name:   "unrecognized extension behaves like empty",
			source: "/in/blob.xyz",
			want: Conversion{
				SourcePath:      "/in/blob.xyz",
				SourceExt:       "xyz",
				DestinationExt:  "jpg",
				EncoderName:     "JPEG",
				DestinationPath: filepath.Join(out, "blob.jpg"),
			},
		},
		{
			name:   "unknown destination falls back to uppercase encoder",
			source: "/in/old.bmp",
			want: Conversion{
				SourcePath:      "/in/old.bmp",
				SourceExt:       "bmp",
				DestinationExt:  "xyz",
				EncoderName:     "XYZ",
				DestinationPath: filepath.Join(out, "old.xyz"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.source, out, rules)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Plan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlanDeterministic(t *testing.T) {
	rules := preferences.Rules{"jpg": "avif"}
	first := Plan("/photos/a.b.jpg", "/out", rules)
	second := Plan("/photos/a.b.jpg", "/out", rules)

	if first != second {
		t.Fatalf("Plan is not deterministic: %+v vs %+v", first, second)
	}
	if first.DestinationPath != filepath.Join("/out", "a.b.avif") {
		t.Errorf("unexpected destination %q", first.DestinationPath)
	}
}
