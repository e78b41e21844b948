package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

var caseFolder = cases.Fold()

// Normalize reduces a metadata string to its canonical comparison form:
// case-folded, diacritics stripped, punctuation removed, stop words dropped,
// whitespace collapsed.
func Normalize(value string, stopWords []string) string {
	folded := caseFolder.String(strings.TrimSpace(value))
	if stripped, _, err := transform.String(diacriticStripper, folded); err == nil {
		folded = stripped
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	if len(stopWords) == 0 {
		return strings.Join(fields, " ")
	}
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[caseFolder.String(w)] = struct{}{}
	}
	kept := fields[:0]
	for _, f := range fields {
		if _, skip := stop[f]; skip {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Signature builds the secondary duplicate-group key from artist and title.
func Signature(artist, title string, stopWords []string) string {
	return Normalize(artist, stopWords) + "|" + Normalize(title, stopWords)
}

// TitleCase renders a parsed token in display casing ("dark side" -> "Dark Side").
func TitleCase(value string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(value)))
}
