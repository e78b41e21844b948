package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tonearm/internal/config"
	"tonearm/internal/logging"
	"tonearm/internal/media"
)

// Report is the structural-soundness verdict for one file. The score is
// independent of perceptual quality; it answers "is this file intact".
type Report struct {
	Score   int      `json:"score"`
	Defects []Defect `json:"defects,omitempty"`
	Healthy bool     `json:"healthy"`
}

// HasDefect reports whether a defect of the given type was recorded.
func (r Report) HasDefect(defectType DefectType) bool {
	for _, defect := range r.Defects {
		if defect.Type == defectType {
			return true
		}
	}
	return false
}

// CriticalDefects returns the subset of defects that gate regardless of score.
func (r Report) CriticalDefects() []Defect {
	var critical []Defect
	for _, defect := range r.Defects {
		if defect.Type.Critical() {
			critical = append(critical, defect)
		}
	}
	return critical
}

// ToJSON serializes the report for catalog persistence.
func (r Report) ToJSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// ReportFromJSON restores a persisted report. A blank or invalid payload
// yields a zero report.
func ReportFromJSON(payload string) Report {
	var report Report
	if payload == "" {
		return report
	}
	_ = json.Unmarshal([]byte(payload), &report)
	return report
}

// LosslessVerifier decodes a lossless stream end to end, erroring when the
// stream is damaged. Implemented by the flaccheck client.
type LosslessVerifier interface {
	Verify(ctx context.Context, path string) error
}

// Scorer runs format-aware structural checks and aggregates them into a
// health report.
type Scorer struct {
	cfg      config.Analysis
	verifier LosslessVerifier
	logger   *slog.Logger
}

// NewScorer constructs a health scorer. verifier may be nil; lossless
// verification is skipped then.
func NewScorer(cfg config.Analysis, verifier LosslessVerifier, logger *slog.Logger) *Scorer {
	return &Scorer{
		cfg:      cfg,
		verifier: verifier,
		logger:   logging.NewComponentLogger(logger, "analysis"),
	}
}

// Score runs every applicable check for the probed file. Checks contribute
// typed defects; no check failure is an error, only I/O against the file
// itself can abort.
//
// The score baseline is 100 for files whose metadata block parsed, 70 when
// it did not; each defect then deducts its category-weighted severity,
// floored at zero.
func (s *Scorer) Score(ctx context.Context, info *media.Info) Report {
	var defects []Defect

	baseline := 100.0
	if !info.Tags.Readable {
		baseline = 70.0
		defects = append(defects, Defect{
			Type:        DefectMetadataCorruption,
			Severity:    70,
			Description: "embedded tags could not be parsed",
		})
	}

	if !info.HeaderValid {
		defects = append(defects, Defect{
			Type:        DefectCorruptedHeader,
			Severity:    90,
			Description: fmt.Sprintf("%s header signature invalid or unparsable", info.Format),
		})
	}

	if defect, ok := s.checkSizeDurationConsistency(info); ok {
		defects = append(defects, defect)
	}

	defects = append(defects, analyzeTrailingBytes(info.Path, info.Size)...)

	if info.Format == media.FormatWAV {
		defects = append(defects, analyzePCMContent(info)...)
	}

	if s.verifier != nil && info.Format.Lossless() && info.Format == media.FormatFLAC && info.HeaderValid {
		if err := s.verifier.Verify(ctx, info.Path); err != nil {
			s.logger.Debug("lossless verification failed",
				logging.String("path", info.Path),
				logging.Error(err))
			defects = append(defects, Defect{
				Type:        DefectDecodeFailure,
				Severity:    95,
				Description: "stream failed lossless integrity test",
			})
		}
	}

	score := baseline
	for _, defect := range defects {
		score -= defect.weightedPenalty()
	}
	if score < 0 {
		score = 0
	}

	report := Report{Score: int(score), Defects: defects}
	report.Healthy = report.Score >= s.cfg.MinHealthScore && len(report.CriticalDefects()) == 0
	return report
}

// checkSizeDurationConsistency compares the size implied by the declared
// duration and bitrate against the actual file size.
func (s *Scorer) checkSizeDurationConsistency(info *media.Info) (Defect, bool) {
	if info.DurationSec <= 0 || info.BitrateKbps <= 0 {
		return Defect{}, false
	}
	expected := info.DurationSec * float64(info.BitrateKbps) * 1000 / 8
	if expected <= 0 {
		return Defect{}, false
	}
	deviation := (expected - float64(info.Size)) / expected
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation <= s.cfg.DurationTolerance {
		return Defect{}, false
	}

	severity := int(deviation * 100)
	if severity > 90 {
		severity = 90
	}
	return Defect{
		Type:     DefectSizeDurationMismatch,
		Severity: severity,
		Description: fmt.Sprintf("declared duration %.0fs implies ~%.0f KB, file is %d KB",
			info.DurationSec, expected/1024, info.Size/1024),
	}, true
}
