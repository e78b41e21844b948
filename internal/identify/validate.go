package identify

import (
	"regexp"
	"strings"
	"unicode"
)

// reservedPlaceholders are identity values that tag writers and rippers
// emit when they know nothing. Accepting them would poison duplicate
// signatures and library paths, so they are rejected outright.
var reservedPlaceholders = map[string]struct{}{
	"unknown":         {},
	"unknown artist":  {},
	"unknown title":   {},
	"unknown album":   {},
	"various":         {},
	"various artists": {},
	"untitled":        {},
	"no artist":       {},
	"artist":          {},
	"title":           {},
	"track":           {},
	"audiotrack":      {},
	"n/a":             {},
	"na":              {},
	"none":            {},
	"null":            {},
	"tbd":             {},
}

// numberedPlaceholder matches ripper output like "Track 01", "AudioTrack 3",
// "Title_02".
var numberedPlaceholder = regexp.MustCompile(`^(?:track|audiotrack|title|untitled|unknown)[ _-]*\d*$`)

// ValidNamePart reports whether a candidate artist or title is acceptable
// identity data: non-empty, not a reserved placeholder, not purely numeric,
// and not punctuation-only.
func ValidNamePart(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	lowered := strings.ToLower(trimmed)
	if _, reserved := reservedPlaceholders[lowered]; reserved {
		return false
	}
	if numberedPlaceholder.MatchString(lowered) {
		return false
	}

	// Purely numeric ("01", "128") or punctuation-only ("---") parts are
	// track numbers and separators, not names.
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
