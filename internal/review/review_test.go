package review

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/logging"
	"tonearm/internal/testsupport"
)

func queueEntry(t *testing.T, store *catalog.Store, hash, path string, candidates []identify.Candidate) {
	t.Helper()

	entry := catalog.ReviewEntry{
		FileHash:       hash,
		OriginalPath:   path,
		CandidatesJSON: identify.CandidatesToJSON(candidates),
	}
	if err := store.QueueForReview(context.Background(), entry); err != nil {
		t.Fatalf("queue for review: %v", err)
	}
}

func TestExportWritesPendingEntriesWithSuggestions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reviewer := New(store, logging.NewNop())

	queueEntry(t, store, "hash-1", "/in/mystery.mp3", []identify.Candidate{
		{Source: identify.SourceFilename, Artist: "Maybe Artist", Title: "Maybe Title", Confidence: 0.50},
		{Source: identify.SourceFingerprint, Artist: "Orbital", Title: "Halcyon", Confidence: 0.62},
	})
	queueEntry(t, store, "hash-2", "/in/blank.mp3", nil)

	var out bytes.Buffer
	count, err := reviewer.Export(context.Background(), &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if count != 2 {
		t.Fatalf("exported %d entries, want 2", count)
	}

	rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "file_hash" || rows[0][9] != "decision" {
		t.Fatalf("header = %v", rows[0])
	}
	// Best candidate fills the suggestion columns; editable columns stay blank.
	if rows[1][2] != "Orbital" || rows[1][3] != "Halcyon" {
		t.Fatalf("suggestions = %v", rows[1])
	}
	if rows[1][4] != "" || rows[1][5] != "" {
		t.Fatalf("editable columns must start blank: %v", rows[1])
	}
	if rows[2][2] != "" || rows[2][3] != "" {
		t.Fatalf("entry without candidates gets blank suggestions: %v", rows[2])
	}
}

func TestImportAppliesRejectsAndSkips(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reviewer := New(store, logging.NewNop())

	for _, hash := range []string{"hash-apply", "hash-reject", "hash-skip", "hash-bad"} {
		queueEntry(t, store, hash, "/in/"+hash+".mp3", nil)
	}

	input := strings.Join([]string{
		strings.Join(csvHeader, ","),
		`hash-apply,/in/hash-apply.mp3,,,Orbital,Halcyon,Orbital 2,techno,1993,`,
		`hash-reject,/in/hash-reject.mp3,,,,,,,,reject`,
		`hash-skip,/in/hash-skip.mp3,,,,,,,,`,
		`hash-bad,/in/hash-bad.mp3,,,Unknown Artist,Something,,,,`,
	}, "\n")

	applied := map[string]*identify.Record{}
	result, err := reviewer.Import(context.Background(), strings.NewReader(input),
		func(_ context.Context, fileHash string, record *identify.Record) error {
			applied[fileHash] = record
			return nil
		})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Applied != 1 || result.Rejected != 1 || result.Skipped != 1 || len(result.Errors) != 1 {
		t.Fatalf("result = %+v", result)
	}

	record := applied["hash-apply"]
	if record == nil {
		t.Fatal("apply callback not invoked")
	}
	if record.Source != identify.SourceManual || record.Confidence != 1.0 {
		t.Fatalf("manual record = %+v", record)
	}
	if record.Artist != "Orbital" || record.Album != "Orbital 2" || record.Year != 1993 {
		t.Fatalf("record fields = %+v", record)
	}

	for hash, want := range map[string]catalog.ReviewStatus{
		"hash-apply":  catalog.ReviewCompleted,
		"hash-reject": catalog.ReviewRejected,
		"hash-skip":   catalog.ReviewPending,
		"hash-bad":    catalog.ReviewPending,
	} {
		entry, err := store.ReviewEntry(context.Background(), hash)
		if err != nil {
			t.Fatal(err)
		}
		if entry.Status != want {
			t.Errorf("%s status = %s, want %s", hash, entry.Status, want)
		}
	}
}

func TestImportRejectsForeignHeader(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reviewer := New(store, logging.NewNop())

	input := "hash,path,artist\nabc,/in/x.mp3,Orbital\n"
	if _, err := reviewer.Import(context.Background(), strings.NewReader(input), nil); err == nil {
		t.Fatal("foreign header must be rejected")
	}
}

func TestImportCollectsMalformedRows(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reviewer := New(store, logging.NewNop())
	queueEntry(t, store, "hash-year", "/in/y.mp3", nil)

	input := strings.Join([]string{
		strings.Join(csvHeader, ","),
		`hash-year,/in/y.mp3,,,Orbital,Halcyon,,,not-a-year,`,
		`short,row`,
	}, "\n")

	result, err := reviewer.Import(context.Background(), strings.NewReader(input),
		func(context.Context, string, *identify.Record) error { return nil })
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Applied != 0 || len(result.Errors) != 2 {
		t.Fatalf("result = %+v", result)
	}
}

func TestExportRoundTripsThroughImport(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	reviewer := New(store, logging.NewNop())
	queueEntry(t, store, "hash-rt", "/in/rt.mp3", []identify.Candidate{
		{Source: identify.SourceTags, Artist: "Leftfield", Title: "Phat Planet", Confidence: 0.70},
	})

	var out bytes.Buffer
	if _, err := reviewer.Export(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	// Simulate the reviewer confirming the suggestion.
	rows, err := csv.NewReader(bytes.NewReader(out.Bytes())).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	rows[1][4] = rows[1][2]
	rows[1][5] = rows[1][3]

	var edited bytes.Buffer
	writer := csv.NewWriter(&edited)
	if err := writer.WriteAll(rows); err != nil {
		t.Fatal(err)
	}

	result, err := reviewer.Import(context.Background(), &edited,
		func(context.Context, string, *identify.Record) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 1 {
		t.Fatalf("result = %+v", result)
	}
}
