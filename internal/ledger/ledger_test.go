package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/catalog"
	"tonearm/internal/logging"
	"tonearm/internal/testsupport"
)

func openTestLedger(t *testing.T, base string) *Ledger {
	t.Helper()

	root := filepath.Join(base, "quarantine")
	l, err := Open(root, filepath.Join(root, "manifest.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return l
}

func quarantineCandidate(t *testing.T, base, name, checksum string, size int64) *catalog.File {
	t.Helper()

	path := filepath.Join(base, "incoming", name)
	testsupport.WriteFile(t, path, size)
	return &catalog.File{Path: path, Checksum: checksum, Size: size}
}

func TestRejectMovesFileAndRecordsEntry(t *testing.T) {
	base := t.TempDir()
	l := openTestLedger(t, base)
	file := quarantineCandidate(t, base, "broken.mp3", "sum-1", 64*1024)

	entry, err := l.Reject(file, catalog.QuarantineCorrupted, "corrupted_header", "run-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if entry.ID == "" || entry.Category != catalog.QuarantineCorrupted {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, err := os.Stat(file.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("original file should be gone after quarantine")
	}
	stat, err := os.Stat(entry.QuarantinePath)
	if err != nil {
		t.Fatalf("quarantined copy missing: %v", err)
	}
	if stat.Size() != 64*1024 {
		t.Errorf("quarantined copy size = %d", stat.Size())
	}
	if filepath.Dir(entry.QuarantinePath) != filepath.Join(base, "quarantine", "corrupted") {
		t.Errorf("wrong category directory: %s", entry.QuarantinePath)
	}
}

func TestRejectIsIdempotentPerChecksumAndPath(t *testing.T) {
	base := t.TempDir()
	l := openTestLedger(t, base)
	file := quarantineCandidate(t, base, "dupe.mp3", "sum-2", 8*1024)

	first, err := l.Reject(file, catalog.QuarantineDuplicate, "rank 2 of 3", "run-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Re-running the same batch must not attempt a second move.
	second, err := l.Reject(file, catalog.QuarantineDuplicate, "rank 2 of 3", "run-2")
	if err != nil {
		t.Fatalf("re-reject: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing entry %s, got %s", first.ID, second.ID)
	}
	if got := len(l.Entries("")); got != 1 {
		t.Fatalf("manifest has %d entries, want 1", got)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	base := t.TempDir()
	l := openTestLedger(t, base)
	file := quarantineCandidate(t, base, "keep-after-all.flac", "sum-3", 16*1024)
	originalPath := file.Path

	entry, err := l.Reject(file, catalog.QuarantineLowQuality, "score 38 below floor 50", "run-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	restored, err := l.Restore(entry.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Restored || restored.RestoredAt == nil {
		t.Fatalf("entry not marked restored: %+v", restored)
	}
	if _, err := os.Stat(originalPath); err != nil {
		t.Fatalf("file not back at original path: %v", err)
	}
	if _, err := os.Stat(entry.QuarantinePath); !errors.Is(err, os.ErrNotExist) {
		t.Error("quarantine copy should be gone after restore")
	}

	// Restoring twice is a no-op, not an error.
	again, err := l.Restore(entry.ID)
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if !again.Restored {
		t.Fatal("entry should stay restored")
	}
}

func TestRestoreUnknownEntry(t *testing.T) {
	l := openTestLedger(t, t.TempDir())
	if _, err := l.Restore("bogus-id"); !errors.Is(err, ErrNoSuchEntry) {
		t.Fatalf("err = %v, want ErrNoSuchEntry", err)
	}
}

func TestManifestSurvivesReopen(t *testing.T) {
	base := t.TempDir()
	l := openTestLedger(t, base)
	file := quarantineCandidate(t, base, "persist.mp3", "sum-4", 4*1024)

	entry, err := l.Reject(file, catalog.QuarantineCorrupted, "truncation", "run-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	reopened := openTestLedger(t, base)
	found, err := reopened.Find(entry.ID)
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if found.QuarantinePath != entry.QuarantinePath || found.Reason != "truncation" {
		t.Fatalf("entry changed across reopen: %+v", found)
	}
}

func TestSummarizeCountsUnrestoredBytesOnly(t *testing.T) {
	base := t.TempDir()
	l := openTestLedger(t, base)

	corrupted := quarantineCandidate(t, base, "a.mp3", "sum-a", 10*1024)
	duplicate := quarantineCandidate(t, base, "b.mp3", "sum-b", 20*1024)
	lowQuality := quarantineCandidate(t, base, "c.mp3", "sum-c", 30*1024)

	if _, err := l.Reject(corrupted, catalog.QuarantineCorrupted, "x", "run-1"); err != nil {
		t.Fatal(err)
	}
	entry, err := l.Reject(duplicate, catalog.QuarantineDuplicate, "x", "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reject(lowQuality, catalog.QuarantineLowQuality, "x", "run-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Restore(entry.ID); err != nil {
		t.Fatal(err)
	}

	summary := l.Summarize()
	if summary.Total != 3 || summary.Restored != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Bytes != 40*1024 {
		t.Errorf("bytes = %d, want %d (restored entry excluded)", summary.Bytes, 40*1024)
	}
	if summary.ByCategory[catalog.QuarantineDuplicate] != 1 {
		t.Errorf("by-category = %+v", summary.ByCategory)
	}

	if got := len(l.Entries(catalog.QuarantineCorrupted)); got != 1 {
		t.Errorf("category filter returned %d entries", got)
	}
}
