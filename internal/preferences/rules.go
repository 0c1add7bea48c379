package preferences

import (
	"sort"
	"strings"

	"image-converter-go/internal/formats"
)

// Rules maps a source extension to the destination extension chosen by the user.
// Destinations are not checked against the format catalog.
type Rules map[string]string

// Rule is a single source -> destination mapping.
type Rule struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Resolve returns the destination for sourceExt, or the default destination.
func (r Rules) Resolve(sourceExt string) string {
	if dst, ok := r[normalizeExt(sourceExt)]; ok && dst != "" {
		return dst
	}
	return formats.DefaultDestination
}

// Set inserts or overwrites a rule. It reports false and leaves the table
// untouched when either side is empty after trimming.
func (r Rules) Set(src, dst string) bool {
	src, dst = normalizeExt(src), normalizeExt(dst)
	if src == "" || dst == "" {
		return false
	}
	r[src] = dst
	return true
}

// Remove deletes the rule for src and reports whether one existed.
func (r Rules) Remove(src string) bool {
	src = normalizeExt(src)
	if _, ok := r[src]; !ok {
		return false
	}
	delete(r, src)
	return true
}

// Clone returns an independent copy of the rules.
func (r Rules) Clone() Rules {
	out := make(Rules, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Entries returns the rules sorted by source extension.
func (r Rules) Entries() []Rule {
	entries := make([]Rule, 0, len(r))
	for src, dst := range r {
		entries = append(entries, Rule{Source: src, Destination: dst})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Source < entries[j].Source
	})
	return entries
}

// normalized drops rules that would not survive Set.
func (r Rules) normalized() Rules {
	out := make(Rules, len(r))
	for src, dst := range r {
		out.Set(src, dst)
	}
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimSpace(ext))
}
