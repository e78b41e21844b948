package identify

import (
	"encoding/json"
	"strings"
)

// Source identifies which resolution tier produced a record. Confidence is
// fixed per tier except for live fingerprint matches, which carry the
// service's match score.
type Source string

const (
	SourceFingerprint       Source = "fingerprint"
	SourceFingerprintCached Source = "fingerprint_cached"
	SourceTags              Source = "tags"
	SourceFilename          Source = "filename"
	SourceManual            Source = "manual"
)

const (
	confidenceCached   = 0.95
	confidenceTags     = 0.70
	confidenceFilename = 0.50
	confidenceManual   = 1.0
)

// Record is resolved metadata for one file. A record is complete only when
// artist and title are both present and neither is a reserved placeholder;
// the pipeline never persists an incomplete record as final metadata.
type Record struct {
	Artist            string  `json:"artist"`
	Title             string  `json:"title"`
	Album             string  `json:"album,omitempty"`
	Genre             string  `json:"genre,omitempty"`
	Year              int     `json:"year,omitempty"`
	Source            Source  `json:"source"`
	Confidence        float64 `json:"confidence"`
	NeedsReview       bool    `json:"needs_review,omitempty"`
	NeedsVerification bool    `json:"needs_verification,omitempty"`
}

// Complete reports whether the record carries usable identity data.
func (r *Record) Complete() bool {
	if r == nil {
		return false
	}
	return ValidNamePart(r.Artist) && ValidNamePart(r.Title)
}

// ToJSON serializes the record for catalog persistence.
func (r *Record) ToJSON() string {
	if r == nil {
		return ""
	}
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// RecordFromJSON restores a persisted record. Blank or invalid payloads
// yield nil.
func RecordFromJSON(payload string) *Record {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil
	}
	return &record
}

// Candidate is a partial or low-confidence result retained for the review
// queue when no tier produced a complete record.
type Candidate struct {
	Source      Source  `json:"source"`
	Artist      string  `json:"artist,omitempty"`
	Title       string  `json:"title,omitempty"`
	RecordingID string  `json:"recording_id,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// CandidatesToJSON serializes gathered candidates for the review queue.
func CandidatesToJSON(candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	data, err := json.Marshal(candidates)
	if err != nil {
		return ""
	}
	return string(data)
}
