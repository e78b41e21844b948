package gate

import (
	"strings"
	"testing"

	"tonearm/internal/analysis"
	"tonearm/internal/config"
	"tonearm/internal/media"
)

func testAnalysisConfig() config.Analysis {
	return config.Analysis{
		MinHealthScore:   30,
		MinDurationSec:   10,
		MaxDurationSec:   3600,
		MinFileSizeBytes: 100 * 1024,
	}
}

func usableInfo() *media.Info {
	return &media.Info{Path: "/in/ok.mp3", Size: 8 << 20, DurationSec: 240}
}

func TestCheckPassesUsableFile(t *testing.T) {
	g := New(testAnalysisConfig())
	verdict := g.Check(usableInfo(), analysis.Report{Score: 95, Healthy: true})
	if !verdict.Pass {
		t.Fatalf("expected pass, got reason %q", verdict.Reason)
	}
}

func TestCheckCollectsEveryFailure(t *testing.T) {
	g := New(testAnalysisConfig())
	info := &media.Info{Path: "/in/bad.mp3", Size: 40 * 1024, DurationSec: 4}
	report := analysis.Report{
		Score: 20,
		Defects: []analysis.Defect{
			{Type: analysis.DefectCorruptedHeader, Severity: 90},
		},
	}

	verdict := g.Check(info, report)
	if verdict.Pass {
		t.Fatal("expected failure")
	}
	for _, fragment := range []string{"corrupted_header", "health score 20", "duration 4.0s", "size 40960"} {
		if !strings.Contains(verdict.Reason, fragment) {
			t.Errorf("reason %q missing %q", verdict.Reason, fragment)
		}
	}
}

func TestCheckCriticalDefectFailsDespiteHighScore(t *testing.T) {
	g := New(testAnalysisConfig())
	report := analysis.Report{
		Score: 80,
		Defects: []analysis.Defect{
			{Type: analysis.DefectCompleteSilence, Severity: 100},
		},
	}
	if verdict := g.Check(usableInfo(), report); verdict.Pass {
		t.Fatal("critical defect must fail the gate regardless of score")
	}
}

func TestCheckDurationBounds(t *testing.T) {
	g := New(testAnalysisConfig())

	short := usableInfo()
	short.DurationSec = 5
	if verdict := g.Check(short, analysis.Report{Score: 95}); verdict.Pass {
		t.Error("sub-minimum duration should fail")
	}

	long := usableInfo()
	long.DurationSec = 4000
	if verdict := g.Check(long, analysis.Report{Score: 95}); verdict.Pass {
		t.Error("over-maximum duration should fail")
	}

	unknown := usableInfo()
	unknown.DurationSec = 0
	if verdict := g.Check(unknown, analysis.Report{Score: 95}); !verdict.Pass {
		t.Errorf("unknown duration alone should not fail: %q", verdict.Reason)
	}
}

func TestDefectFrequencyOrdering(t *testing.T) {
	reports := []analysis.Report{
		{Defects: []analysis.Defect{
			{Type: analysis.DefectClipping},
			{Type: analysis.DefectTruncation},
		}},
		{Defects: []analysis.Defect{{Type: analysis.DefectClipping}}},
		{Defects: []analysis.Defect{{Type: analysis.DefectClipping}}},
		{},
	}

	rows := DefectFrequency(reports)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Type != analysis.DefectClipping || rows[0].Count != 3 {
		t.Fatalf("most frequent first: %+v", rows[0])
	}
	if rows[1].Type != analysis.DefectTruncation || rows[1].Count != 1 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}
