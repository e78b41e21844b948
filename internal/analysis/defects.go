package analysis

// DefectType identifies one failing structural or content check.
type DefectType string

const (
	DefectCorruptedHeader      DefectType = "corrupted_header"
	DefectTruncation           DefectType = "truncation"
	DefectSizeDurationMismatch DefectType = "size_duration_mismatch"
	DefectSuspiciousPadding    DefectType = "suspicious_padding"
	DefectMetadataCorruption   DefectType = "metadata_corruption"
	DefectDecodeFailure        DefectType = "decode_failure"
	DefectSyncErrors           DefectType = "sync_errors"
	DefectEncodingErrors       DefectType = "encoding_errors"
	DefectCompleteSilence      DefectType = "complete_silence"
	DefectExcessiveSilence     DefectType = "excessive_silence"
	DefectClipping             DefectType = "clipping"
)

// criticalDefects always gate a file regardless of its numeric score.
var criticalDefects = map[DefectType]struct{}{
	DefectCorruptedHeader:    {},
	DefectCompleteSilence:    {},
	DefectDecodeFailure:      {},
	DefectSyncErrors:         {},
	DefectMetadataCorruption: {},
	DefectEncodingErrors:     {},
}

// Critical reports whether this defect type alone marks a file unhealthy.
func (t DefectType) Critical() bool {
	_, ok := criticalDefects[t]
	return ok
}

// defectCategory groups defects for score weighting. Structural damage
// weighs heaviest; sample-domain heuristics weigh lightest because they are
// soft signals.
type defectCategory int

const (
	categoryStructural defectCategory = iota
	categoryMetadata
	categorySample
)

var categoryWeights = map[defectCategory]float64{
	categoryStructural: 0.8,
	categoryMetadata:   0.5,
	categorySample:     0.3,
}

var defectCategories = map[DefectType]defectCategory{
	DefectCorruptedHeader:      categoryStructural,
	DefectTruncation:           categoryStructural,
	DefectSizeDurationMismatch: categoryStructural,
	DefectSuspiciousPadding:    categoryStructural,
	DefectDecodeFailure:        categoryStructural,
	DefectSyncErrors:           categoryStructural,
	DefectEncodingErrors:       categoryStructural,
	DefectMetadataCorruption:   categoryMetadata,
	DefectCompleteSilence:      categorySample,
	DefectExcessiveSilence:     categorySample,
	DefectClipping:             categorySample,
}

// Defect records one failing check with its 0-100 severity.
type Defect struct {
	Type        DefectType `json:"type"`
	Severity    int        `json:"severity"`
	Description string     `json:"description"`
}

// weightedPenalty is the score deduction this defect contributes.
func (d Defect) weightedPenalty() float64 {
	weight, ok := categoryWeights[defectCategories[d.Type]]
	if !ok {
		weight = categoryWeights[categoryStructural]
	}
	return float64(d.Severity) * weight
}
