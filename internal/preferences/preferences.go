package preferences

import "fmt"

const (
	MinQuality     = 10
	MaxQuality     = 100
	DefaultQuality = 85
)

// ErrQualityOutOfRange is returned when a committed quality falls outside [MinQuality, MaxQuality].
var ErrQualityOutOfRange = fmt.Errorf("quality must be between %d and %d", MinQuality, MaxQuality)

// Preferences is the persisted user state: output directory, quality and rules.
type Preferences struct {
	OutputDir string `json:"output_dir"`
	Quality   int    `json:"quality"`
	Rules     Rules  `json:"conversion_rules"`
}

// DefaultPreferences returns the state used when nothing has been saved yet.
func DefaultPreferences() Preferences {
	return Preferences{
		OutputDir: "",
		Quality:   DefaultQuality,
		Rules:     Rules{},
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	if p.Rules == nil {
		out.Rules = Rules{}
	} else {
		out.Rules = p.Rules.Clone()
	}
	return out
}

// ValidQuality reports whether q lies within the accepted range.
func ValidQuality(q int) bool {
	return q >= MinQuality && q <= MaxQuality
}

// ClampQuality forces q into the accepted range.
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// sanitize repairs values that were edited by hand or written by an older version.
func (p Preferences) sanitize() Preferences {
	out := p
	if out.Quality == 0 {
		out.Quality = DefaultQuality
	}
	out.Quality = ClampQuality(out.Quality)
	if out.Rules == nil {
		out.Rules = Rules{}
	} else {
		out.Rules = out.Rules.normalized()
	}
	return out
}
