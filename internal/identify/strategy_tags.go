package identify

import (
	"context"
	"strings"

	"tonearm/internal/catalog"
	"tonearm/internal/media"
	"tonearm/internal/textutil"
)

// TagStrategy is resolution tier two: trust the embedded tags when they pass
// validation. Tag-sourced identity is marked for verification because tags
// lie more often than fingerprints do.
type TagStrategy struct {
	aliases          *textutil.AliasTable
	titleCorrections map[string]string
	genreByArtist    map[string]string
}

// NewTagStrategy wires the tag tier. All tables may be nil.
func NewTagStrategy(aliases *textutil.AliasTable, titleCorrections, genreByArtist map[string]string) *TagStrategy {
	return &TagStrategy{
		aliases:          aliases,
		titleCorrections: titleCorrections,
		genreByArtist:    genreByArtist,
	}
}

func (s *TagStrategy) Name() string { return "tags" }

// Attempt reads identity from the probed tags. Placeholder or empty parts
// fail the tier; partial tags become review candidates.
func (s *TagStrategy) Attempt(_ context.Context, _ *catalog.File, info *media.Info) (*Record, []Candidate, error) {
	if info == nil || !info.Tags.Readable {
		return nil, nil, nil
	}

	artist := strings.TrimSpace(info.Tags.Artist)
	title := strings.TrimSpace(info.Tags.Title)

	if !ValidNamePart(artist) || !ValidNamePart(title) {
		return nil, partialTagCandidate(artist, title), nil
	}

	artist = s.aliases.Canonical(artist)
	title = s.correctTitle(title)

	record := &Record{
		Artist:            artist,
		Title:             title,
		Album:             strings.TrimSpace(info.Tags.Album),
		Genre:             strings.TrimSpace(info.Tags.Genre),
		Year:              info.Tags.Year,
		Source:            SourceTags,
		Confidence:        confidenceTags,
		NeedsVerification: true,
	}
	if record.Genre == "" && len(s.genreByArtist) > 0 {
		if genre, ok := s.genreByArtist[strings.ToLower(artist)]; ok {
			record.Genre = genre
		}
	}
	return record, nil, nil
}

// correctTitle applies configured exact-match corrections, then fixes
// shouting and whispering titles.
func (s *TagStrategy) correctTitle(title string) string {
	if corrected, ok := s.titleCorrections[title]; ok {
		return corrected
	}
	if title == strings.ToUpper(title) || title == strings.ToLower(title) {
		if strings.ContainsFunc(title, isCasedLetter) {
			return textutil.TitleCase(title)
		}
	}
	return title
}

func isCasedLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// partialTagCandidate keeps whatever valid half a partial tag set offers.
func partialTagCandidate(artist, title string) []Candidate {
	if !ValidNamePart(artist) && !ValidNamePart(title) {
		return nil
	}
	candidate := Candidate{Source: SourceTags, Confidence: confidenceTags}
	if ValidNamePart(artist) {
		candidate.Artist = artist
	}
	if ValidNamePart(title) {
		candidate.Title = title
	}
	return []Candidate{candidate}
}
