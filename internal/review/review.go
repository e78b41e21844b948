// Package review round-trips the manual review queue through CSV. Export
// writes pending entries with their gathered candidates; import reads
// reviewer-supplied metadata back, applies it at full confidence, and
// re-submits the file to the pipeline.
package review

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/logging"
)

// csvHeader is the export column order. Import requires the same header so
// a half-edited spreadsheet cannot be misread column-by-column.
var csvHeader = []string{
	"file_hash", "original_path", "suggested_artist", "suggested_title",
	"artist", "title", "album", "genre", "year", "decision",
}

// ImportResult summarizes one import pass.
type ImportResult struct {
	Applied  int
	Rejected int
	Skipped  int
	Errors   []string
}

// Reviewer owns review-queue export and import against the catalog.
type Reviewer struct {
	store  *catalog.Store
	logger *slog.Logger
}

// New constructs a reviewer over the store.
func New(store *catalog.Store, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		store:  store,
		logger: logging.NewComponentLogger(logger, "review"),
	}
}

// Export writes pending review entries as CSV. The best gathered candidate
// pre-fills the suggested columns; the editable columns start blank.
func (r *Reviewer) Export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := r.store.ReviewEntries(ctx, catalog.ReviewPending)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		suggestedArtist, suggestedTitle := bestCandidate(entry.CandidatesJSON)
		record := []string{
			entry.FileHash, entry.OriginalPath, suggestedArtist, suggestedTitle,
			"", "", "", "", "", "",
		}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return len(entries), writer.Error()
}

// Import reads a reviewed CSV and applies each row. Rows with decision
// "reject" mark the entry rejected; rows with artist and title filled apply
// the metadata as a manual resolution and complete the entry. Malformed
// rows are collected, never fatal.
func (r *Reviewer) Import(ctx context.Context, reader io.Reader, apply func(ctx context.Context, fileHash string, record *identify.Record) error) (ImportResult, error) {
	var result ImportResult

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = len(csvHeader)

	header, err := csvReader.Read()
	if err != nil {
		return result, fmt.Errorf("read csv header: %w", err)
	}
	if !headerMatches(header) {
		return result, fmt.Errorf("unexpected csv header: %v", header)
	}

	for line := 2; ; line++ {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if err := r.applyRow(ctx, row, apply); err != nil {
			if errors.Is(err, errRowSkipped) {
				result.Skipped++
				continue
			}
			if errors.Is(err, errRowRejected) {
				result.Rejected++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Applied++
	}

	r.logger.Info("review import complete",
		logging.Int("applied", result.Applied),
		logging.Int("rejected", result.Rejected),
		logging.Int("skipped", result.Skipped),
		logging.Int("errors", len(result.Errors)))
	return result, nil
}

var (
	errRowSkipped  = errors.New("row skipped")
	errRowRejected = errors.New("row rejected")
)

func (r *Reviewer) applyRow(ctx context.Context, row []string, apply func(ctx context.Context, fileHash string, record *identify.Record) error) error {
	fileHash := strings.TrimSpace(row[0])
	if fileHash == "" {
		return errors.New("missing file hash")
	}

	decision := strings.ToLower(strings.TrimSpace(row[9]))
	if decision == "reject" {
		if err := r.store.SetReviewStatus(ctx, fileHash, catalog.ReviewRejected); err != nil {
			return err
		}
		return errRowRejected
	}

	artist := strings.TrimSpace(row[4])
	title := strings.TrimSpace(row[5])
	if artist == "" && title == "" {
		return errRowSkipped
	}
	if !identify.ValidNamePart(artist) || !identify.ValidNamePart(title) {
		return fmt.Errorf("invalid artist %q or title %q", artist, title)
	}

	year := 0
	if raw := strings.TrimSpace(row[8]); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid year %q", raw)
		}
		year = parsed
	}

	record := identify.AcceptManual(artist, title, strings.TrimSpace(row[6]), strings.TrimSpace(row[7]), year)
	if err := apply(ctx, fileHash, record); err != nil {
		return err
	}
	return r.store.SetReviewStatus(ctx, fileHash, catalog.ReviewCompleted)
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, column := range header {
		if strings.TrimSpace(column) != csvHeader[i] {
			return false
		}
	}
	return true
}

// bestCandidate picks the highest-confidence gathered candidate for the
// suggestion columns.
func bestCandidate(candidatesJSON string) (artist, title string) {
	if strings.TrimSpace(candidatesJSON) == "" {
		return "", ""
	}
	var candidates []identify.Candidate
	if err := json.Unmarshal([]byte(candidatesJSON), &candidates); err != nil {
		return "", ""
	}
	best := -1.0
	for _, candidate := range candidates {
		if candidate.Confidence > best {
			best = candidate.Confidence
			artist, title = candidate.Artist, candidate.Title
		}
	}
	return artist, title
}
