package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tonearm/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// ResetStuckProcessing rolls interrupted processing statuses back to their
// phase entry points. Called once at startup before a run begins.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	for _, transition := range processingRollbackTransitions {
		res, err := s.db.ExecContext(ctx,
			`UPDATE audio_files SET status = ?, updated_at = ? WHERE status = ?`,
			transition.to, timestamp(), transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset %s files: %w", transition.from, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// Summary aggregates catalog counts per key lifecycle state.
func (s *Store) Summary(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM audio_files GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize catalog: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusDiscovered:
			summary.Discovered += count
		case StatusAnalyzing, StatusAnalyzed, StatusDuplicateMember, StatusKeeper, StatusOrganizing:
			summary.Processing += count
		case StatusHealthy:
			summary.Healthy += count
		case StatusQuarantined:
			summary.Quarantined += count
		case StatusOrganized:
			summary.Organized += count
		case StatusReview:
			summary.Review += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
