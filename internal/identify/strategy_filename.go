package identify

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"tonearm/internal/catalog"
	"tonearm/internal/media"
	"tonearm/internal/textutil"
)

// filenameGrammar is one recognized filename shape. Grammars are tried in
// order; the first whose parts validate wins.
type filenameGrammar struct {
	name    string
	pattern *regexp.Regexp
	artist  int // capture group index
	title   int
}

// Grammars are ordered most-specific first so "128 - Artist - Title" binds
// the BPM prefix instead of treating "128" as the artist.
var filenameGrammars = []filenameGrammar{
	{
		name:    "bpm-artist-title",
		pattern: regexp.MustCompile(`^\d{2,3}\s*-\s*(.+?)\s*-\s*(.+)$`),
		artist:  1,
		title:   2,
	},
	{
		name:    "tracknum-artist-title",
		pattern: regexp.MustCompile(`^\d{1,3}[.\s]+\s*(.+?)\s*-\s*(.+)$`),
		artist:  1,
		title:   2,
	},
	{
		name:    "artist-title",
		pattern: regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`),
		artist:  1,
		title:   2,
	},
}

// decorationPattern strips trailing "[Label]" and release-group suffixes
// from the title part. Parenthesized versions ("(Extended Mix)") are kept;
// they distinguish real releases.
var decorationPattern = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)

// FilenameStrategy is the last automatic tier: parse identity out of the
// file name. Everything it produces needs review.
type FilenameStrategy struct {
	aliases *textutil.AliasTable
}

// NewFilenameStrategy wires the filename tier.
func NewFilenameStrategy(aliases *textutil.AliasTable) *FilenameStrategy {
	return &FilenameStrategy{aliases: aliases}
}

func (s *FilenameStrategy) Name() string { return "filename" }

// Attempt parses the base name against the grammar list. A match with an
// invalid artist or title part fails that grammar, not the whole tier.
func (s *FilenameStrategy) Attempt(_ context.Context, file *catalog.File, _ *media.Info) (*Record, []Candidate, error) {
	base := filepath.Base(file.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	// Underscore-separated names are the same grammars with "_" for " ".
	if !strings.ContainsRune(base, ' ') && strings.ContainsRune(base, '_') {
		base = strings.ReplaceAll(base, "_", " ")
	}
	base = strings.TrimSpace(base)

	for _, grammar := range filenameGrammars {
		match := grammar.pattern.FindStringSubmatch(base)
		if match == nil {
			continue
		}
		artist := strings.TrimSpace(match[grammar.artist])
		title := strings.TrimSpace(decorationPattern.ReplaceAllString(match[grammar.title], ""))
		if !ValidNamePart(artist) || !ValidNamePart(title) {
			continue
		}
		return &Record{
			Artist:      s.aliases.Canonical(artist),
			Title:       title,
			Source:      SourceFilename,
			Confidence:  confidenceFilename,
			NeedsReview: true,
		}, nil, nil
	}

	return nil, nil, nil
}
