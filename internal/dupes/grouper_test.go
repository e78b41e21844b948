package dupes

import (
	"testing"

	"tonearm/internal/analysis"
	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/media"
	"tonearm/internal/quality"
)

func scoredFile(t *testing.T, path, fingerprint string, format media.Format, kbps int, size int64) *catalog.File {
	t.Helper()

	scorer := quality.NewScorer("casual")
	score := scorer.Score(quality.Inputs{Format: format, BitrateKbps: kbps, SampleRate: 44100},
		analysis.Report{Score: 100, Healthy: true})
	return &catalog.File{
		Path:        path,
		Size:        size,
		Fingerprint: fingerprint,
		QualityJSON: score.ToJSON(),
	}
}

func TestGroupKeepsHighestQualityCopy(t *testing.T) {
	grouper := NewGrouper(nil, nil)
	files := []*catalog.File{
		scoredFile(t, "/in/a-128.mp3", "FP1", media.FormatMP3, 128, 4<<20),
		scoredFile(t, "/in/a-320.mp3", "FP1", media.FormatMP3, 320, 10<<20),
		scoredFile(t, "/in/a-256.mp3", "FP1", media.FormatMP3, 256, 8<<20),
	}

	groups := grouper.Group(files)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	group := groups[0]
	if got := group.Keeper().File.Path; got != "/in/a-320.mp3" {
		t.Fatalf("keeper = %s, want the 320kbps copy", got)
	}
	rejected := group.Rejected()
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejected, got %d", len(rejected))
	}
	if rejected[0].File.Path != "/in/a-256.mp3" || rejected[0].Rank != 2 {
		t.Errorf("rank 2 should be 256kbps, got %s rank %d", rejected[0].File.Path, rejected[0].Rank)
	}
	if rejected[1].File.Path != "/in/a-128.mp3" || rejected[1].Rank != 3 {
		t.Errorf("rank 3 should be 128kbps, got %s rank %d", rejected[1].File.Path, rejected[1].Rank)
	}
	if got := group.ReclaimableBytes(); got != 12<<20 {
		t.Errorf("reclaimable = %d, want %d", got, int64(12<<20))
	}
}

func TestGroupTiesBreakOnFormatPreference(t *testing.T) {
	grouper := NewGrouper(nil, nil)
	flac := scoredFile(t, "/in/a.flac", "FP1", media.FormatFLAC, 0, 30<<20)
	wav := scoredFile(t, "/in/a.wav", "FP1", media.FormatWAV, 0, 50<<20)

	// Same composite score territory; FLAC outranks WAV.
	groups := grouper.Group([]*catalog.File{wav, flac})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	keeperScore := quality.ScoreFromJSON(groups[0].Keeper().File.QualityJSON)
	memberScore := quality.ScoreFromJSON(groups[0].Rejected()[0].File.QualityJSON)
	if keeperScore.FinalScore == memberScore.FinalScore &&
		groups[0].Keeper().File.Path != "/in/a.flac" {
		t.Fatalf("tie should prefer FLAC, keeper was %s", groups[0].Keeper().File.Path)
	}
}

func TestGroupFallsBackToSignature(t *testing.T) {
	grouper := NewGrouper(nil, []string{"the"})

	withMetadata := func(path, artist, title string, kbps int) *catalog.File {
		file := scoredFile(t, path, "", media.FormatMP3, kbps, 5<<20)
		record := identify.Record{Artist: artist, Title: title, Source: identify.SourceTags, Confidence: 0.7}
		file.MetadataJSON = record.ToJSON()
		return file
	}

	files := []*catalog.File{
		withMetadata("/in/one.mp3", "The Prodigy", "Breathe", 320),
		withMetadata("/in/two.mp3", "PRODIGY", "breathe", 128),
	}
	groups := grouper.Group(files)
	if len(groups) != 1 {
		t.Fatalf("signature variants should group together, got %d groups", len(groups))
	}
	if groups[0].Keeper().File.Path != "/in/one.mp3" {
		t.Fatalf("keeper = %s", groups[0].Keeper().File.Path)
	}
}

func TestSingletonsAndUnkeyedFilesNeverGroup(t *testing.T) {
	grouper := NewGrouper(nil, nil)
	files := []*catalog.File{
		scoredFile(t, "/in/unique.mp3", "FP-UNIQUE", media.FormatMP3, 320, 5<<20),
		scoredFile(t, "/in/nokey.mp3", "", media.FormatMP3, 320, 5<<20),
	}
	if groups := grouper.Group(files); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestGroupOutputIsDeterministic(t *testing.T) {
	grouper := NewGrouper(nil, nil)
	build := func() []*catalog.File {
		return []*catalog.File{
			scoredFile(t, "/in/b.mp3", "FP2", media.FormatMP3, 320, 1<<20),
			scoredFile(t, "/in/a2.mp3", "FP1", media.FormatMP3, 128, 1<<20),
			scoredFile(t, "/in/a1.mp3", "FP1", media.FormatMP3, 320, 1<<20),
			scoredFile(t, "/in/b2.mp3", "FP2", media.FormatMP3, 128, 1<<20),
		}
	}

	first := grouper.Group(build())
	second := grouper.Group(build())
	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("group order differs at %d: %s vs %s", i, first[i].Key, second[i].Key)
		}
		if first[i].Keeper().File.Path != second[i].Keeper().File.Path {
			t.Fatalf("keeper differs for %s", first[i].Key)
		}
	}
}
