// Package gate decides whether an analyzed file is usable at all. Files the
// gate rejects are quarantined as corrupted; everything else continues to
// duplicate grouping.
package gate

import (
	"fmt"
	"sort"
	"strings"

	"tonearm/internal/analysis"
	"tonearm/internal/config"
	"tonearm/internal/media"
)

// Verdict is the gate's decision for one file. When Pass is false, Reason
// names every failed check so the quarantine manifest explains itself.
type Verdict struct {
	Pass   bool
	Reason string
}

// Gate applies the health threshold and the usability checks.
type Gate struct {
	cfg config.Analysis
}

// New constructs a gate from the analysis settings.
func New(cfg config.Analysis) *Gate {
	return &Gate{cfg: cfg}
}

// Check evaluates one file. The checks are independent; all failures are
// collected rather than short-circuiting so the reason string is complete.
func (g *Gate) Check(info *media.Info, health analysis.Report) Verdict {
	var failures []string

	if critical := health.CriticalDefects(); len(critical) > 0 {
		names := make([]string, 0, len(critical))
		for _, defect := range critical {
			names = append(names, string(defect.Type))
		}
		failures = append(failures, "critical defects: "+strings.Join(names, ", "))
	}
	if health.Score < g.cfg.MinHealthScore {
		failures = append(failures, fmt.Sprintf("health score %d below minimum %d", health.Score, g.cfg.MinHealthScore))
	}
	if info.DurationSec > 0 && info.DurationSec < g.cfg.MinDurationSec {
		failures = append(failures, fmt.Sprintf("duration %.1fs below minimum %.0fs", info.DurationSec, g.cfg.MinDurationSec))
	}
	if info.DurationSec > g.cfg.MaxDurationSec {
		failures = append(failures, fmt.Sprintf("duration %.1fs above maximum %.0fs", info.DurationSec, g.cfg.MaxDurationSec))
	}
	if info.Size < g.cfg.MinFileSizeBytes {
		failures = append(failures, fmt.Sprintf("size %d bytes below minimum %d", info.Size, g.cfg.MinFileSizeBytes))
	}

	if len(failures) == 0 {
		return Verdict{Pass: true}
	}
	return Verdict{Reason: strings.Join(failures, "; ")}
}

// DefectCount is one row of the batch defect-frequency report.
type DefectCount struct {
	Type  analysis.DefectType
	Count int
}

// DefectFrequency tallies defect types across a batch of reports, most
// frequent first. Ties break alphabetically so the report is stable.
func DefectFrequency(reports []analysis.Report) []DefectCount {
	counts := make(map[analysis.DefectType]int)
	for _, report := range reports {
		for _, defect := range report.Defects {
			counts[defect.Type]++
		}
	}

	rows := make([]DefectCount, 0, len(counts))
	for defectType, count := range counts {
		rows = append(rows, DefectCount{Type: defectType, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Type < rows[j].Type
	})
	return rows
}
