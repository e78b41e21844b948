package testsupport

import (
	"context"
	"testing"
	"time"

	"tonearm/internal/catalog"
	"tonearm/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// DiscoverFile registers a file in the catalog for tests.
func DiscoverFile(t testing.TB, store *catalog.Store, path, checksum string, size int64) *catalog.File {
	t.Helper()

	file, _, err := store.Discover(context.Background(), path, checksum, size, time.Now())
	if err != nil {
		t.Fatalf("store.Discover: %v", err)
	}
	return file
}
