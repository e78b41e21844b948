// Package scanner walks source directories and registers audio files in the
// catalog. Scanning is read-only and idempotent: a file already cataloged
// with the same checksum is skipped, a changed file is reset for
// re-analysis.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"tonearm/internal/catalog"
	"tonearm/internal/fileutil"
	"tonearm/internal/logging"
	"tonearm/internal/media"
)

// Stats summarizes one scan pass.
type Stats struct {
	Seen       int
	Registered int
	Skipped    int
	Errors     int
}

// Scanner discovers audio files for the catalog.
type Scanner struct {
	store  *catalog.Store
	logger *slog.Logger
}

// New constructs a scanner writing discoveries to the store.
func New(store *catalog.Store, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:  store,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks root and registers every audio file found. Unreadable files
// are counted and logged, never fatal; a scan finishes the walk it started
// unless the context is cancelled.
func (s *Scanner) Scan(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	root, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("resolve scan root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return stats, fmt.Errorf("stat scan root: %w", err)
	} else if !info.IsDir() {
		return stats, fmt.Errorf("scan root %q is not a directory", root)
	}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			stats.Errors++
			s.logger.Warn("scan entry unreadable", logging.String("path", path), logging.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !media.IsAudioPath(path) {
			return nil
		}
		stats.Seen++

		if err := s.register(ctx, path, &stats); err != nil {
			stats.Errors++
			s.logger.Warn("failed to register file", logging.String("path", path), logging.Error(err))
		}
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	s.logger.Info("scan complete",
		logging.String("root", root),
		logging.Int("seen", stats.Seen),
		logging.Int("registered", stats.Registered),
		logging.Int("skipped", stats.Skipped),
		logging.Int("errors", stats.Errors))
	return stats, nil
}

func (s *Scanner) register(ctx context.Context, path string, stats *Stats) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	checksum, err := fileutil.HashFile(path)
	if err != nil {
		return err
	}

	file, created, err := s.store.Discover(ctx, path, checksum, info.Size(), info.ModTime())
	if err != nil {
		return err
	}
	if created {
		stats.Registered++
		s.logger.Debug("file registered",
			logging.Int64("file_id", file.ID),
			logging.String("path", path))
	} else {
		stats.Skipped++
	}
	return nil
}
