package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// QueueForReview inserts or refreshes a review-queue entry keyed by file
// hash. An existing entry keeps its status; only the candidate set is
// refreshed so re-runs never clobber reviewer progress.
func (s *Store) QueueForReview(ctx context.Context, entry ReviewEntry) error {
	entry.FileHash = strings.TrimSpace(entry.FileHash)
	if entry.FileHash == "" {
		return errors.New("review entry requires file hash")
	}
	if entry.Status == "" {
		entry.Status = ReviewPending
	}
	now := timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_queue (file_hash, original_path, candidates_json, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_hash) DO UPDATE SET
			candidates_json = excluded.candidates_json,
			updated_at = excluded.updated_at`,
		entry.FileHash, entry.OriginalPath, entry.CandidatesJSON, entry.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("queue for review: %w", err)
	}
	return nil
}

// ReviewEntry fetches one review record by file hash.
func (s *Store) ReviewEntry(ctx context.Context, fileHash string) (*ReviewEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT file_hash, original_path, candidates_json, status, created_at, updated_at
		 FROM review_queue WHERE file_hash = ?`, fileHash)
	return scanReviewEntry(row)
}

// ReviewEntries lists review records, optionally filtered by status.
func (s *Store) ReviewEntries(ctx context.Context, status ReviewStatus) ([]*ReviewEntry, error) {
	query := `SELECT file_hash, original_path, candidates_json, status, created_at, updated_at
		 FROM review_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review entries: %w", err)
	}
	defer rows.Close()

	var entries []*ReviewEntry
	for rows.Next() {
		entry, err := scanReviewEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetReviewStatus updates review progress for a queued file.
func (s *Store) SetReviewStatus(ctx context.Context, fileHash string, status ReviewStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_queue SET status = ?, updated_at = ? WHERE file_hash = ?`,
		status, timestamp(), fileHash)
	if err != nil {
		return fmt.Errorf("set review status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoSuchReviewEntry
	}
	return nil
}

func scanReviewEntry(row rowScanner) (*ReviewEntry, error) {
	var entry ReviewEntry
	var createdAt, updatedAt string
	err := row.Scan(&entry.FileHash, &entry.OriginalPath, &entry.CandidatesJSON,
		&entry.Status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchReviewEntry
	}
	if err != nil {
		return nil, fmt.Errorf("scan review entry: %w", err)
	}
	entry.CreatedAt = parseTime(createdAt)
	entry.UpdatedAt = parseTime(updatedAt)
	return &entry, nil
}
