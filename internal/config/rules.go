package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	sstrings "github.com/sortomatic/sortomatic/internal/strings"
)

// extToCategory is a flattened, lowercased extension -> category lookup
// built once per Settings, avoiding a linear scan of the categories map per
// file (the original's get_category does scan the dict every call; this is
// a straightforward Go-idiomatic precomputation of the same rule table).
type extToCategory map[string]string

// BuildExtensionIndex flattens Settings.Categories into a single
// extension -> category map.
func (s Settings) BuildExtensionIndex() extToCategory {
	idx := make(extToCategory)
	for category, exts := range s.Categories {
		for _, ext := range exts {
			idx[strings.ToLower(ext)] = category
		}
	}
	return idx
}

// GetCategory determines the category for a (possibly dot-prefixed)
// extension, falling back to Other. Ported from config.py's
// Settings.get_category.
func (idx extToCategory) GetCategory(extension string) string {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if cat, ok := idx[ext]; ok {
		return cat
	}
	return sstrings.CatOther
}

// IgnoreMatcher decides whether a basename should be excluded from the
// walk. The ignore list in filetypes.toml is a flat glob list matched
// against basenames (original_source's smart_walk uses fnmatch.fnmatch on
// the basename); doublestar additionally allows multi-segment patterns
// (e.g. "**/*.tmp") for callers that want them, a superset of the
// original's plain fnmatch behavior.
type IgnoreMatcher struct {
	compiled *gitignore.GitIgnore
	raw      []string
}

// NewIgnoreMatcher compiles the configured ignore-glob list.
func NewIgnoreMatcher(patterns []string) *IgnoreMatcher {
	return &IgnoreMatcher{
		compiled: gitignore.CompileIgnoreLines(patterns...),
		raw:      patterns,
	}
}

// Matches reports whether basename should be ignored. Falls back to a
// doublestar basename match for any raw pattern the gitignore compiler
// didn't already cover (gitignore syntax treats a bare pattern as
// matching anywhere in the tree, which already covers the common case;
// the doublestar pass exists so a pattern containing "/" is honored
// against the basename-relative path too).
func (m *IgnoreMatcher) Matches(basename string) bool {
	if m == nil {
		return false
	}
	if m.compiled.MatchesPath(basename) {
		return true
	}
	for _, pattern := range m.raw {
		if ok, _ := doublestar.Match(pattern, basename); ok {
			return true
		}
	}
	return false
}

// AtomicMarkerSet is a basename set for O(1) atomic-bundle marker lookup.
type AtomicMarkerSet map[string]struct{}

// NewAtomicMarkerSet builds a lookup set from the configured marker list.
func NewAtomicMarkerSet(markers []string) AtomicMarkerSet {
	set := make(AtomicMarkerSet, len(markers))
	for _, m := range markers {
		set[m] = struct{}{}
	}
	return set
}

// Intersects reports whether any of names is a configured atomic marker.
func (s AtomicMarkerSet) Intersects(names []string) bool {
	for _, n := range names {
		if _, ok := s[n]; ok {
			return true
		}
	}
	return false
}
