// Package ledger moves rejected files into category subdirectories under the
// quarantine root and records every move in an append-only JSON manifest.
// Nothing is ever deleted; every quarantined file can be restored to its
// original path from manifest data alone.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"tonearm/internal/catalog"
	"tonearm/internal/fileutil"
	"tonearm/internal/logging"
)

// Entry is one manifest record: where the file came from, where it went,
// and why.
type Entry struct {
	ID             string                     `json:"id"`
	Category       catalog.QuarantineCategory `json:"category"`
	OriginalPath   string                     `json:"original_path"`
	QuarantinePath string                     `json:"quarantine_path"`
	Checksum       string                     `json:"checksum"`
	SizeBytes      int64                      `json:"size_bytes"`
	Reason         string                     `json:"reason"`
	RunID          string                     `json:"run_id"`
	RejectedAt     time.Time                  `json:"rejected_at"`
	Restored       bool                       `json:"restored,omitempty"`
	RestoredAt     *time.Time                 `json:"restored_at,omitempty"`
}

// Summary aggregates manifest counters per category.
type Summary struct {
	Total      int
	Restored   int
	ByCategory map[catalog.QuarantineCategory]int
	Bytes      int64
}

// ErrNoSuchEntry is returned when an entry ID is not in the manifest.
var ErrNoSuchEntry = errors.New("no such ledger entry")

// Ledger owns the quarantine directory tree and its manifest file.
type Ledger struct {
	root         string
	manifestPath string
	logger       *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

// Open loads (or initializes) the manifest under the quarantine root.
func Open(root, manifestPath string, logger *slog.Logger) (*Ledger, error) {
	l := &Ledger{
		root:         root,
		manifestPath: manifestPath,
		logger:       logging.NewComponentLogger(logger, "ledger"),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reject moves the file into the category subdirectory and appends a
// manifest entry. A file already quarantined under the same checksum and
// original path returns the existing entry unchanged, which is what makes
// re-running a failed batch safe.
func (l *Ledger) Reject(file *catalog.File, category catalog.QuarantineCategory, reason, runID string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.entries {
		if !existing.Restored && existing.Checksum == file.Checksum && existing.OriginalPath == file.Path {
			return existing, nil
		}
	}

	categoryDir := filepath.Join(l.root, string(category))
	if err := os.MkdirAll(categoryDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create quarantine category directory: %w", err)
	}

	destination := fileutil.UniquePath(filepath.Join(categoryDir, filepath.Base(file.Path)))
	if err := fileutil.MoveFileVerified(file.Path, destination); err != nil {
		return Entry{}, fmt.Errorf("quarantine %s: %w", file.Path, err)
	}

	entry := Entry{
		ID:             uuid.New().String(),
		Category:       category,
		OriginalPath:   file.Path,
		QuarantinePath: destination,
		Checksum:       file.Checksum,
		SizeBytes:      file.Size,
		Reason:         reason,
		RunID:          runID,
		RejectedAt:     time.Now().UTC(),
	}
	l.entries = append(l.entries, entry)
	if err := l.persistLocked(); err != nil {
		return Entry{}, err
	}

	l.logger.Info("file quarantined",
		logging.String("category", string(category)),
		logging.String("path", file.Path),
		logging.String("reason", reason))
	return entry, nil
}

// Restore moves a quarantined file back to its original path. The manifest
// entry is marked restored, never removed; the ledger stays append-only.
func (l *Ledger) Restore(entryID string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, entry := range l.entries {
		if entry.ID != entryID {
			continue
		}
		if entry.Restored {
			return entry, nil
		}
		destination := fileutil.UniquePath(entry.OriginalPath)
		if err := fileutil.MoveFileVerified(entry.QuarantinePath, destination); err != nil {
			return Entry{}, fmt.Errorf("restore %s: %w", entry.QuarantinePath, err)
		}
		now := time.Now().UTC()
		l.entries[i].Restored = true
		l.entries[i].RestoredAt = &now
		if err := l.persistLocked(); err != nil {
			return Entry{}, err
		}
		l.logger.Info("file restored",
			logging.String("path", destination),
			logging.String("entry_id", entryID))
		return l.entries[i], nil
	}
	return Entry{}, ErrNoSuchEntry
}

// Entries returns a copy of the manifest, optionally filtered by category.
func (l *Ledger) Entries(category catalog.QuarantineCategory) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	filtered := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if category != "" && entry.Category != category {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// Find locates an entry by ID.
func (l *Ledger) Find(entryID string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.ID == entryID {
			return entry, nil
		}
	}
	return Entry{}, ErrNoSuchEntry
}

// Summarize computes manifest counters.
func (l *Ledger) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := Summary{ByCategory: make(map[catalog.QuarantineCategory]int)}
	for _, entry := range l.entries {
		summary.Total++
		summary.ByCategory[entry.Category]++
		if entry.Restored {
			summary.Restored++
			continue
		}
		summary.Bytes += entry.SizeBytes
	}
	return summary
}

func (l *Ledger) load() error {
	data, err := os.ReadFile(l.manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read quarantine manifest: %w", err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return fmt.Errorf("parse quarantine manifest: %w", err)
	}
	return nil
}

// persistLocked writes the manifest atomically: temp file then rename.
func (l *Ledger) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(l.manifestPath), 0o755); err != nil {
		return fmt.Errorf("create quarantine directory: %w", err)
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quarantine manifest: %w", err)
	}
	tmp := l.manifestPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest temp file: %w", err)
	}
	if err := os.Rename(tmp, l.manifestPath); err != nil {
		return fmt.Errorf("replace manifest file: %w", err)
	}
	return nil
}
