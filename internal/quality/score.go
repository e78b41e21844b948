// Package quality computes the composite 0-100 desirability score used to
// rank duplicates and gate low-quality keepers.
package quality

import (
	"encoding/json"

	"tonearm/internal/analysis"
	"tonearm/internal/media"
)

// Action is the deterministic recommendation derived from a score.
type Action string

const (
	ActionKeepExcellent       Action = "keep-excellent"
	ActionKeepAcceptable      Action = "keep-acceptable"
	ActionKeepConsiderUpgrade Action = "keep-consider-upgrade"
	ActionReplace             Action = "replace"
	ActionManualReview        Action = "manual-review"
)

// Inputs carries the measured attributes a score is computed from. Zero
// values mean "not measured"; each missing sub-analysis costs confidence.
type Inputs struct {
	Format            media.Format
	BitrateKbps       int
	SampleRate        int
	FrequencyCutoffHz int     // measured spectral cutoff, 0 when unmeasured
	DynamicRangeDB    float64 // 0 when unmeasured
	ClippingRatio     float64
	NoiseFloorDB      float64 // negative dBFS, 0 when unmeasured
	HasSpectral       bool
	HasReference      bool
	ReferenceStanding int // 0-100 standing against the best known version
	BetterReference   bool
}

// Score is the composite quality verdict for one file.
type Score struct {
	FinalScore int    `json:"final_score"`
	Grade      Grade  `json:"grade"`
	Technical  int    `json:"technical"`
	Fidelity   int    `json:"fidelity"`
	Integrity  int    `json:"integrity"`
	Reference  int    `json:"reference"`
	Confidence int    `json:"confidence"`
	Action     Action `json:"recommended_action"`
	Profile    string `json:"profile"`
	FormatRank int    `json:"format_rank"`
}

// ToJSON serializes the score for catalog persistence.
func (s Score) ToJSON() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

// ScoreFromJSON restores a persisted score.
func ScoreFromJSON(payload string) Score {
	var score Score
	if payload == "" {
		return score
	}
	_ = json.Unmarshal([]byte(payload), &score)
	return score
}

// neutralReference is assumed when no external reference version is known.
const neutralReference = 75

// Scorer combines category sub-scores under a named weighting profile.
// Scoring is pure: identical inputs always produce identical scores, which
// is what makes duplicate keeper selection reproducible.
type Scorer struct {
	profile string
	weights Weights
}

// NewScorer constructs a scorer for the given profile name.
func NewScorer(profile string) *Scorer {
	return &Scorer{profile: profile, weights: ProfileWeights(profile)}
}

// Score computes the composite for one file from its measured inputs and
// health report.
func (s *Scorer) Score(inputs Inputs, health analysis.Report) Score {
	technical := technicalScore(inputs)
	fidelity := fidelityScore(inputs)
	integrity := integrityScore(health)
	reference := referenceScore(inputs)

	final := s.weights.Technical*float64(technical) +
		s.weights.Fidelity*float64(fidelity) +
		s.weights.Integrity*float64(integrity) +
		s.weights.Reference*float64(reference)

	score := Score{
		FinalScore: clamp(int(final + 0.5)),
		Technical:  technical,
		Fidelity:   fidelity,
		Integrity:  integrity,
		Reference:  reference,
		Confidence: confidence(inputs, health),
		Profile:    s.profile,
		FormatRank: inputs.Format.PreferenceRank(),
	}
	score.Grade = GradeFor(score.FinalScore)
	score.Action = recommend(score.FinalScore, health.Healthy, inputs.BetterReference)
	return score
}

// technicalScore weights bitrate-for-format, container preference, and the
// measured frequency cutoff.
func technicalScore(inputs Inputs) int {
	bitrate := bitrateScore(inputs.Format, inputs.BitrateKbps)
	format := formatScore(inputs.Format)
	cutoff := cutoffScore(inputs)
	return clamp(int(0.5*float64(bitrate) + 0.3*float64(format) + 0.2*float64(cutoff) + 0.5))
}

// bitrateScore saturates for lossless formats and bands lossy bitrates.
func bitrateScore(format media.Format, kbps int) int {
	if format.Lossless() {
		return 100
	}
	switch {
	case kbps >= 320:
		return 95
	case kbps >= 256:
		return 85
	case kbps >= 192:
		return 75
	case kbps >= 160:
		return 65
	case kbps >= 128:
		return 55
	case kbps >= 96:
		return 40
	case kbps > 0:
		return 25
	default:
		return 30 // unmeasured; treat as low but not floor
	}
}

func formatScore(format media.Format) int {
	return clamp(100 - format.PreferenceRank()*10)
}

func cutoffScore(inputs Inputs) int {
	if !inputs.HasSpectral || inputs.FrequencyCutoffHz == 0 {
		return neutralReference
	}
	switch {
	case inputs.FrequencyCutoffHz >= 20000:
		return 100
	case inputs.FrequencyCutoffHz >= 18000:
		return 85
	case inputs.FrequencyCutoffHz >= 16000:
		return 70
	case inputs.FrequencyCutoffHz >= 14000:
		return 50
	default:
		return 30
	}
}

// fidelityScore averages dynamic range, spectral brightness, clipping, and
// noise floor; unmeasured components score neutral.
func fidelityScore(inputs Inputs) int {
	dynamicRange := neutralReference
	if inputs.DynamicRangeDB > 0 {
		switch {
		case inputs.DynamicRangeDB >= 14:
			dynamicRange = 100
		case inputs.DynamicRangeDB >= 10:
			dynamicRange = 80
		case inputs.DynamicRangeDB >= 7:
			dynamicRange = 60
		default:
			dynamicRange = 40
		}
	}

	clipping := 100 - int(inputs.ClippingRatio*1000)
	if clipping < 0 {
		clipping = 0
	}

	noise := neutralReference
	if inputs.NoiseFloorDB < 0 {
		switch {
		case inputs.NoiseFloorDB <= -70:
			noise = 100
		case inputs.NoiseFloorDB <= -60:
			noise = 80
		case inputs.NoiseFloorDB <= -50:
			noise = 60
		default:
			noise = 40
		}
	}

	return clamp((dynamicRange + clipping + noise) / 3)
}

// integrityScore starts from the health score and penalizes defect count.
func integrityScore(health analysis.Report) int {
	return clamp(health.Score - len(health.Defects)*5)
}

func referenceScore(inputs Inputs) int {
	if !inputs.HasReference {
		return neutralReference
	}
	return clamp(inputs.ReferenceStanding)
}

// recommend derives the action deterministically from score, health, and
// whether a better reference version is known to exist.
func recommend(final int, healthy, betterReference bool) Action {
	switch {
	case !healthy:
		return ActionReplace
	case final >= 90:
		return ActionKeepExcellent
	case final >= 70 && betterReference:
		return ActionKeepConsiderUpgrade
	case final >= 70:
		return ActionKeepAcceptable
	case final >= 50 && betterReference:
		return ActionReplace
	case final >= 50:
		return ActionKeepConsiderUpgrade
	default:
		return ActionManualReview
	}
}

// confidence starts at 100 and drops a fixed penalty per missing
// sub-analysis.
func confidence(inputs Inputs, health analysis.Report) int {
	value := 100
	if !inputs.HasSpectral {
		value -= 15
	}
	if !inputs.HasReference {
		value -= 10
	}
	if inputs.DynamicRangeDB == 0 {
		value -= 10
	}
	if health.HasDefect(analysis.DefectMetadataCorruption) {
		value -= 10
	}
	if value < 25 {
		value = 25
	}
	return value
}

func clamp(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
