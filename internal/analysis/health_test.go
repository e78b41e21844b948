package analysis

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/config"
	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/testsupport"
)

func testScorer(verifier LosslessVerifier) *Scorer {
	return NewScorer(config.Analysis{
		MinHealthScore:    30,
		DurationTolerance: 0.10,
	}, verifier, logging.NewNop())
}

type failingVerifier struct{}

func (failingVerifier) Verify(context.Context, string) error {
	return errors.New("decode error at sample 1024")
}

func TestScoreCleanWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	testsupport.WriteWAV(t, path, 2, 8000, 20000)

	info, err := media.Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !info.HeaderValid {
		t.Fatal("fixture header should parse")
	}

	report := testScorer(nil).Score(context.Background(), info)
	if report.Score != 100 {
		t.Errorf("clean file scored %d, want 100: %+v", report.Score, report.Defects)
	}
	if !report.Healthy {
		t.Errorf("clean file should be healthy: %+v", report.Defects)
	}
}

func TestScoreSilentWAVIsCritical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	testsupport.WriteWAV(t, path, 2, 8000, 0)

	info, err := media.Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}

	report := testScorer(nil).Score(context.Background(), info)
	if !report.HasDefect(DefectCompleteSilence) {
		t.Fatalf("expected complete_silence, got %+v", report.Defects)
	}
	if report.Healthy {
		t.Fatal("completely silent file must not be healthy")
	}
	if len(report.CriticalDefects()) == 0 {
		t.Fatal("complete silence is a critical defect")
	}
}

func TestScoreSilenceDetectedPastOddSizedChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listed.wav")
	dataSize := 16000

	// Silent WAV with an odd-sized LIST chunk before fmt; the sampler must
	// honor the RIFF pad byte or it never reaches the data chunk.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+7+1+8+16+8+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(7))
	buf.WriteString("INFOxyz")
	buf.WriteByte(0)
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(8000))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := media.Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !info.HeaderValid {
		t.Fatal("fixture header should parse")
	}

	report := testScorer(nil).Score(context.Background(), info)
	if !report.HasDefect(DefectCompleteSilence) {
		t.Fatalf("silence not sampled past the odd-sized chunk: %+v", report.Defects)
	}
}

func TestScoreSizeDurationMismatchWithUnreadableTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.mp3")
	testsupport.WriteFile(t, path, 40*1024)

	// A 40 KB file claiming 45 minutes at 192 kbps.
	info := &media.Info{
		Path:        path,
		Size:        40 * 1024,
		Format:      media.FormatMP3,
		DurationSec: 2700,
		BitrateKbps: 192,
		HeaderValid: true,
		Tags:        media.Tags{Readable: false},
	}

	report := testScorer(nil).Score(context.Background(), info)
	if !report.HasDefect(DefectMetadataCorruption) {
		t.Errorf("unreadable tags should record metadata_corruption: %+v", report.Defects)
	}
	if !report.HasDefect(DefectSizeDurationMismatch) {
		t.Errorf("size far below declared duration should record size_duration_mismatch: %+v", report.Defects)
	}
	if report.Healthy {
		t.Fatal("file must be unhealthy")
	}
	if report.Score >= 30 {
		t.Errorf("score = %d, want below the health floor", report.Score)
	}
}

func TestScoreInvalidHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mp3")
	testsupport.WriteFile(t, path, 256*1024)

	info := &media.Info{
		Path:        path,
		Size:        256 * 1024,
		Format:      media.FormatMP3,
		HeaderValid: false,
		Tags:        media.Tags{Readable: true},
	}

	report := testScorer(nil).Score(context.Background(), info)
	if !report.HasDefect(DefectCorruptedHeader) {
		t.Fatalf("expected corrupted_header, got %+v", report.Defects)
	}
	if report.Healthy {
		t.Fatal("corrupted header gates the file")
	}
}

func TestScoreEmptyFileIsTruncated(t *testing.T) {
	info := &media.Info{
		Path:        filepath.Join(t.TempDir(), "missing.flac"),
		Size:        0,
		Format:      media.FormatFLAC,
		HeaderValid: true,
		Tags:        media.Tags{Readable: true},
	}

	report := testScorer(nil).Score(context.Background(), info)
	if !report.HasDefect(DefectTruncation) {
		t.Fatalf("empty file should record truncation, got %+v", report.Defects)
	}
}

func TestScoreLosslessVerifierFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "damaged.flac")
	testsupport.WriteFile(t, path, 512*1024)

	info := &media.Info{
		Path:        path,
		Size:        512 * 1024,
		Format:      media.FormatFLAC,
		HeaderValid: true,
		Tags:        media.Tags{Readable: true},
	}

	report := testScorer(failingVerifier{}).Score(context.Background(), info)
	if !report.HasDefect(DefectDecodeFailure) {
		t.Fatalf("verifier failure should record decode_failure, got %+v", report.Defects)
	}
	if report.Healthy {
		t.Fatal("decode failure is critical")
	}

	// Without a verifier the same file scores clean.
	clean := testScorer(nil).Score(context.Background(), info)
	if clean.HasDefect(DefectDecodeFailure) {
		t.Fatal("no verifier configured, decode_failure should not appear")
	}
}

func TestReportJSONRoundTrip(t *testing.T) {
	report := Report{
		Score:   28,
		Healthy: false,
		Defects: []Defect{
			{Type: DefectCorruptedHeader, Severity: 90, Description: "mp3 header signature invalid or unparsable"},
		},
	}
	restored := ReportFromJSON(report.ToJSON())
	if restored.Score != report.Score || restored.Healthy != report.Healthy {
		t.Fatalf("round trip mismatch: %+v vs %+v", restored, report)
	}
	if len(restored.Defects) != 1 || restored.Defects[0].Type != DefectCorruptedHeader {
		t.Fatalf("defects not preserved: %+v", restored.Defects)
	}
	if got := ReportFromJSON(""); got.Score != 0 || len(got.Defects) != 0 {
		t.Fatalf("blank payload should yield a zero report, got %+v", got)
	}
}
