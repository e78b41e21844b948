package organizer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/logging"
	"tonearm/internal/testsupport"
)

func testRecord() *identify.Record {
	return &identify.Record{
		Artist:     "Orbital",
		Title:      "Halcyon",
		Album:      "Orbital 2",
		Source:     identify.SourceFingerprint,
		Confidence: 0.97,
	}
}

func TestDestinationForLayout(t *testing.T) {
	o := New("/library", logging.NewNop())
	file := &catalog.File{Path: "/in/some file.flac"}

	destination, err := o.DestinationFor(file, testRecord())
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/library", "Orbital", "Orbital 2", "Orbital - Halcyon.flac")
	if destination != want {
		t.Fatalf("destination = %s, want %s", destination, want)
	}

	record := testRecord()
	record.Album = ""
	destination, err = o.DestinationFor(file, record)
	if err != nil {
		t.Fatal(err)
	}
	if destination != filepath.Join("/library", "Orbital", "Orbital - Halcyon.flac") {
		t.Fatalf("album-less destination = %s", destination)
	}
}

func TestDestinationForSanitizesNames(t *testing.T) {
	o := New("/library", logging.NewNop())
	file := &catalog.File{Path: "/in/x.mp3"}
	record := &identify.Record{
		Artist:     "AC/DC",
		Title:      `Back: "In Black"?`,
		Source:     identify.SourceTags,
		Confidence: 0.7,
	}

	destination, err := o.DestinationFor(file, record)
	if err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{":", "\"", "?"} {
		if strings.Contains(filepath.Base(destination), forbidden) {
			t.Errorf("destination %q contains %q", destination, forbidden)
		}
	}
	relative, err := filepath.Rel("/library", destination)
	if err != nil {
		t.Fatal(err)
	}
	// The slash in the artist name must not introduce a directory level.
	if parts := strings.Split(relative, string(filepath.Separator)); len(parts) != 2 || parts[0] != "AC-DC" {
		t.Errorf("layout = %s", relative)
	}
}

func TestDestinationForIncompleteMetadata(t *testing.T) {
	o := New("/library", logging.NewNop())
	if _, err := o.DestinationFor(&catalog.File{Path: "/in/x.mp3"}, &identify.Record{Artist: "Orbital"}); err == nil {
		t.Fatal("incomplete record should be rejected")
	}
}

func TestOrganizeMovesFile(t *testing.T) {
	base := t.TempDir()
	library := filepath.Join(base, "library")
	o := New(library, logging.NewNop())

	source := filepath.Join(base, "in", "raw.flac")
	testsupport.WriteFile(t, source, 32*1024)
	file := &catalog.File{Path: source, Size: 32 * 1024}

	destination, err := o.Organize(file, testRecord())
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := os.Stat(destination); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Error("source should be removed after organize")
	}
}

func TestOrganizeNeverOverwrites(t *testing.T) {
	base := t.TempDir()
	library := filepath.Join(base, "library")
	o := New(library, logging.NewNop())

	occupied := filepath.Join(library, "Orbital", "Orbital 2", "Orbital - Halcyon.flac")
	testsupport.WriteFile(t, occupied, 1024)

	source := filepath.Join(base, "in", "dupe.flac")
	testsupport.WriteFile(t, source, 2048)

	destination, err := o.Organize(&catalog.File{Path: source, Size: 2048}, testRecord())
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if destination == occupied {
		t.Fatal("existing library file must not be overwritten")
	}
	if filepath.Base(destination) != "Orbital - Halcyon_2.flac" {
		t.Fatalf("collision variant = %s", filepath.Base(destination))
	}
	if info, err := os.Stat(occupied); err != nil || info.Size() != 1024 {
		t.Fatal("occupied file changed")
	}
}

func TestOrganizeRefusesWhenVolumeFull(t *testing.T) {
	base := t.TempDir()
	o := New(filepath.Join(base, "library"), logging.NewNop())
	o.statfs = func(string) (uint64, uint64, error) {
		return 1024, 1 << 40, nil
	}

	source := filepath.Join(base, "in", "big.flac")
	testsupport.WriteFile(t, source, 8*1024)

	_, err := o.Organize(&catalog.File{Path: source, Size: 8 * 1024}, testRecord())
	if err == nil || !strings.Contains(err.Error(), "insufficient library space") {
		t.Fatalf("err = %v", err)
	}
	if _, statErr := os.Stat(source); statErr != nil {
		t.Fatal("source must survive a refused move")
	}
}

func TestOrganizeProceedsWhenStatfsFails(t *testing.T) {
	base := t.TempDir()
	o := New(filepath.Join(base, "library"), logging.NewNop())
	o.statfs = func(string) (uint64, uint64, error) {
		return 0, 0, errors.New("statfs unsupported")
	}

	source := filepath.Join(base, "in", "track.mp3")
	testsupport.WriteFile(t, source, 4*1024)

	if _, err := o.Organize(&catalog.File{Path: source, Size: 4 * 1024}, testRecord()); err != nil {
		t.Fatalf("statfs failure must not block the move: %v", err)
	}
}
