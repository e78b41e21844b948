// Package organizer relocates keeper files into the library tree. Layout is
// Library/Artist/Album/"Artist - Title.ext"; files without an album land in
// the artist directory. Moves are verified copies and never overwrite.
package organizer

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sys/unix"

	"tonearm/internal/catalog"
	"tonearm/internal/fileutil"
	"tonearm/internal/identify"
	"tonearm/internal/logging"
	"tonearm/internal/textutil"
)

// headroomBytes is required free space beyond the file size itself, so an
// organize pass cannot fill the library volume to the last byte.
const headroomBytes = 64 << 20

type statfsFunc func(path string) (free uint64, total uint64, err error)

// Organizer computes library destinations and performs verified moves.
type Organizer struct {
	libraryDir string
	logger     *slog.Logger
	statfs     statfsFunc
}

// New constructs an organizer rooted at libraryDir.
func New(libraryDir string, logger *slog.Logger) *Organizer {
	return &Organizer{
		libraryDir: libraryDir,
		logger:     logging.NewComponentLogger(logger, "organizer"),
		statfs:     realStatfs,
	}
}

// DestinationFor computes the library path for a file with resolved
// metadata. Name parts are sanitized for the filesystem; collision handling
// happens at move time.
func (o *Organizer) DestinationFor(file *catalog.File, record *identify.Record) (string, error) {
	if !record.Complete() {
		return "", fmt.Errorf("cannot organize %s: incomplete metadata", file.Path)
	}

	artist := textutil.SanitizeFileName(record.Artist)
	title := textutil.SanitizeFileName(record.Title)
	name := fmt.Sprintf("%s - %s%s", artist, title, filepath.Ext(file.Path))

	dir := filepath.Join(o.libraryDir, artist)
	if album := textutil.SanitizeFileName(record.Album); album != "" {
		dir = filepath.Join(dir, album)
	}
	return filepath.Join(dir, name), nil
}

// Organize moves the file to its computed destination. An occupied
// destination gets a numbered variant; the library never loses an existing
// file to an incoming one.
func (o *Organizer) Organize(file *catalog.File, record *identify.Record) (string, error) {
	destination, err := o.DestinationFor(file, record)
	if err != nil {
		return "", err
	}

	if err := o.checkSpace(file.Size); err != nil {
		return "", err
	}

	destination = fileutil.UniquePath(destination)
	if err := fileutil.MoveFileVerified(file.Path, destination); err != nil {
		return "", fmt.Errorf("organize %s: %w", file.Path, err)
	}

	o.logger.Info("file organized",
		logging.String("from", file.Path),
		logging.String("to", destination))
	return destination, nil
}

// checkSpace verifies the library volume can absorb the file plus headroom.
func (o *Organizer) checkSpace(sizeBytes int64) error {
	free, _, err := o.statfs(o.libraryDir)
	if err != nil {
		// Statfs failing is not grounds to block the move; the verified
		// copy will fail cleanly if space truly runs out.
		o.logger.Warn("library free-space check failed", logging.Error(err))
		return nil
	}
	needed := uint64(sizeBytes) + headroomBytes
	if free < needed {
		return fmt.Errorf("insufficient library space: %d bytes free, %d needed", free, needed)
	}
	return nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Bavail * blockSize, stat.Blocks * blockSize, nil
}
