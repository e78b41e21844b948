package fpcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tonearm/internal/logging"
)

func testEntry(fingerprint string) Entry {
	return Entry{
		FingerprintHash: Key(fingerprint),
		RecordingID:     "rec-1",
		Artist:          "Orbital",
		Title:           "Halcyon",
		Confidence:      0.97,
	}
}

func TestStoreAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpcache.json")
	cache := New(path, time.Hour, logging.NewNop())

	entry := testEntry("AQAA_fp")
	if err := cache.Store(entry); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, found := cache.Lookup(Key("AQAA_fp"))
	if !found {
		t.Fatal("entry not found")
	}
	if got.Artist != "Orbital" || got.RecordingID != "rec-1" {
		t.Fatalf("entry = %+v", got)
	}
	if got.CachedAt.IsZero() {
		t.Fatal("CachedAt should be stamped on store")
	}

	if _, found := cache.Lookup(Key("other_fp")); found {
		t.Fatal("unknown key should miss")
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpcache.json")
	cache := New(path, time.Hour, logging.NewNop())
	if err := cache.Store(testEntry("AQAA_fp")); err != nil {
		t.Fatal(err)
	}

	reopened := New(path, time.Hour, logging.NewNop())
	if reopened.Len() != 1 {
		t.Fatalf("reopened cache has %d entries", reopened.Len())
	}
	if _, found := reopened.Lookup(Key("AQAA_fp")); !found {
		t.Fatal("entry lost across reopen")
	}
}

func TestExpiredEntriesAreEvicted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpcache.json")
	cache := New(path, time.Hour, logging.NewNop())

	stale := testEntry("AQAA_fp")
	stale.CachedAt = time.Now().Add(-2 * time.Hour)
	if err := cache.Store(stale); err != nil {
		t.Fatal(err)
	}

	if _, found := cache.Lookup(Key("AQAA_fp")); found {
		t.Fatal("expired entry should miss")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry should be evicted, len = %d", cache.Len())
	}
}

func TestZeroTTLKeepsEntriesForever(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpcache.json")
	cache := New(path, 0, logging.NewNop())

	old := testEntry("AQAA_fp")
	old.CachedAt = time.Now().Add(-365 * 24 * time.Hour)
	if err := cache.Store(old); err != nil {
		t.Fatal(err)
	}
	if _, found := cache.Lookup(Key("AQAA_fp")); !found {
		t.Fatal("zero TTL should never expire")
	}
}

func TestEmptyPathDisablesCache(t *testing.T) {
	cache := New("", time.Hour, logging.NewNop())
	if err := cache.Store(testEntry("AQAA_fp")); err != nil {
		t.Fatalf("no-op store should not error: %v", err)
	}
	if _, found := cache.Lookup(Key("AQAA_fp")); found {
		t.Fatal("disabled cache must always miss")
	}
}

func TestCorruptCacheFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpcache.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := New(path, time.Hour, logging.NewNop())
	if cache.Len() != 0 {
		t.Fatalf("corrupt file should start empty, len = %d", cache.Len())
	}
	// Storing over the corrupt file recovers it.
	if err := cache.Store(testEntry("AQAA_fp")); err != nil {
		t.Fatal(err)
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("abc") != Key("abc") {
		t.Fatal("key must be deterministic")
	}
	if Key("abc") == Key("abd") {
		t.Fatal("different fingerprints must hash differently")
	}
	if len(Key("abc")) != 64 {
		t.Fatalf("key length = %d", len(Key("abc")))
	}
}
