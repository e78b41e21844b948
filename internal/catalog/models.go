package catalog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a catalog file.
type Status string

const (
	StatusDiscovered      Status = "discovered"
	StatusAnalyzing       Status = "analyzing"
	StatusAnalyzed        Status = "analyzed"
	StatusHealthy         Status = "healthy"
	StatusQuarantined     Status = "quarantined"
	StatusDuplicateMember Status = "duplicate_member"
	StatusKeeper          Status = "keeper"
	StatusOrganizing      Status = "organizing"
	StatusOrganized       Status = "organized"
	StatusReview          Status = "review"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusHealthy,
	StatusQuarantined,
	StatusDuplicateMember,
	StatusKeeper,
	StatusOrganizing,
	StatusOrganized,
	StatusReview,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses never transition again; re-runs skip files in them.
var terminalStatuses = map[Status]struct{}{
	StatusQuarantined: {},
	StatusOrganized:   {},
	StatusReview:      {},
	StatusFailed:      {},
}

type statusTransition struct {
	from Status
	to   Status
}

// Interrupted processing statuses roll back to their phase entry point so a
// restarted run re-processes the file instead of stranding it.
var processingRollbackTransitions = []statusTransition{
	{from: StatusAnalyzing, to: StatusDiscovered},
	{from: StatusOrganizing, to: StatusKeeper},
}

// Terminal reports whether a file in this status has reached its final
// disposition.
func (s Status) Terminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// QuarantineCategory labels why a file was quarantined.
type QuarantineCategory string

const (
	QuarantineDuplicate  QuarantineCategory = "duplicate"
	QuarantineLowQuality QuarantineCategory = "low_quality"
	QuarantineCorrupted  QuarantineCategory = "corrupted"
)

// File represents an audio file record persisted in SQLite. Identity fields
// are fixed at discovery; derived attributes and pipeline state are mutated
// only by the phase that currently owns the record.
type File struct {
	ID               int64
	Path             string
	Size             int64
	ModTime          time.Time
	Checksum         string
	Format           string
	DurationSec      float64
	BitrateKbps      int
	SampleRate       int
	Channels         int
	Status           Status
	Fingerprint      string
	MetadataJSON     string
	HealthJSON       string
	QualityJSON      string
	QuarantineReason string
	ErrorMessage     string
	RunID            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReviewStatus tracks manual review progress for a queued file.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
	ReviewRejected   ReviewStatus = "rejected"
)

// ParseReviewStatus validates a stored or imported review status value.
func ParseReviewStatus(value string) (ReviewStatus, bool) {
	switch ReviewStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ReviewPending:
		return ReviewPending, true
	case ReviewInProgress:
		return ReviewInProgress, true
	case ReviewCompleted:
		return ReviewCompleted, true
	case ReviewRejected:
		return ReviewRejected, true
	default:
		return "", false
	}
}

// ReviewEntry is one durable review-queue record. CandidatesJSON preserves
// every partial or low-confidence metadata result gathered during resolution
// so a reviewer starts from what the pipeline already knows.
type ReviewEntry struct {
	FileHash       string
	OriginalPath   string
	CandidatesJSON string
	Status         ReviewStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HealthSummary describes aggregated catalog counts per key lifecycle state.
type HealthSummary struct {
	Total       int
	Discovered  int
	Processing  int
	Healthy     int
	Quarantined int
	Organized   int
	Review      int
	Failed      int
}
