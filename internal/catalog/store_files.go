package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const fileColumns = `id, path, size, mod_time, checksum, format, duration_sec,
	bitrate_kbps, sample_rate, channels, status, fingerprint, metadata_json,
	health_json, quality_json, quarantine_reason, error_message, run_id,
	created_at, updated_at`

// Discover inserts a newly found file, or returns the existing record when
// the path is already cataloged. Existing terminal records are returned
// unchanged so re-runs stay idempotent; non-terminal records with a changed
// checksum are reset to discovered. The bool reports whether a new row was
// inserted.
func (s *Store) Discover(ctx context.Context, path, checksum string, size int64, modTime time.Time) (*File, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false, errors.New("file path required")
	}

	existing, err := s.GetByPath(ctx, path)
	if err != nil && !errors.Is(err, ErrNoSuchFile) {
		return nil, false, err
	}
	if existing != nil {
		if existing.Status.Terminal() || existing.Checksum == checksum {
			return existing, false, nil
		}
		existing.Checksum = checksum
		existing.Size = size
		existing.ModTime = modTime
		existing.Status = StatusDiscovered
		if err := s.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	now := timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audio_files (path, size, mod_time, checksum, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, size, modTime.UTC().Format(time.RFC3339Nano), checksum, StatusDiscovered, now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	file, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}

// GetByID fetches a file record by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM audio_files WHERE id = ?`, id)
	return scanFile(row)
}

// GetByPath fetches a file record by its source path.
func (s *Store) GetByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM audio_files WHERE path = ?`, path)
	return scanFile(row)
}

// FindByChecksum returns all records sharing a content checksum.
func (s *Store) FindByChecksum(ctx context.Context, checksum string) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM audio_files WHERE checksum = ? ORDER BY id`, checksum)
	if err != nil {
		return nil, fmt.Errorf("query by checksum: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// Update persists every mutable column of the record.
func (s *Store) Update(ctx context.Context, file *File) error {
	if file == nil || file.ID == 0 {
		return errors.New("file with id required")
	}
	if !file.Status.Valid() {
		return fmt.Errorf("invalid status %q", file.Status)
	}
	file.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE audio_files SET
			path = ?, size = ?, mod_time = ?, checksum = ?, format = ?,
			duration_sec = ?, bitrate_kbps = ?, sample_rate = ?, channels = ?,
			status = ?, fingerprint = ?, metadata_json = ?, health_json = ?,
			quality_json = ?, quarantine_reason = ?, error_message = ?, run_id = ?,
			updated_at = ?
		 WHERE id = ?`,
		file.Path, file.Size, file.ModTime.UTC().Format(time.RFC3339Nano), file.Checksum, file.Format,
		file.DurationSec, file.BitrateKbps, file.SampleRate, file.Channels,
		file.Status, file.Fingerprint, file.MetadataJSON, file.HealthJSON,
		file.QualityJSON, file.QuarantineReason, file.ErrorMessage, file.RunID,
		file.UpdatedAt.Format(time.RFC3339Nano),
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file %d: %w", file.ID, err)
	}
	return nil
}

// NextBatch returns up to limit files in the given status, ordered by id so
// repeated runs process files deterministically.
func (s *Store) NextBatch(ctx context.Context, status Status, limit int) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM audio_files WHERE status = ? ORDER BY id LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// ListByStatus returns every file in the given statuses.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*File, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM audio_files WHERE status IN (`+placeholders+`) ORDER BY id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// CountByStatus returns how many files currently hold the given status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM audio_files WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var file File
	var modTime, createdAt, updatedAt string
	err := row.Scan(
		&file.ID, &file.Path, &file.Size, &modTime, &file.Checksum, &file.Format,
		&file.DurationSec, &file.BitrateKbps, &file.SampleRate, &file.Channels,
		&file.Status, &file.Fingerprint, &file.MetadataJSON, &file.HealthJSON,
		&file.QualityJSON, &file.QuarantineReason, &file.ErrorMessage, &file.RunID,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSuchFile
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	file.ModTime = parseTime(modTime)
	file.CreatedAt = parseTime(createdAt)
	file.UpdatedAt = parseTime(updatedAt)
	return &file, nil
}

func scanFiles(rows *sql.Rows) ([]*File, error) {
	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
