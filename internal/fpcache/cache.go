// Package fpcache caches successful fingerprint identifications on disk so
// re-runs skip the AcoustID round trip. Entries are keyed by a hash of the
// fingerprint string and expire after a configured TTL.
package fpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tonearm/internal/logging"
)

// Entry represents a cached fingerprint identification.
type Entry struct {
	FingerprintHash string    `json:"fingerprint_hash"`
	RecordingID     string    `json:"recording_id"`
	Artist          string    `json:"artist"`
	Title           string    `json:"title"`
	Album           string    `json:"album"`
	Genre           string    `json:"genre"`
	Year            int       `json:"year"`
	Confidence      float64   `json:"confidence"`
	CachedAt        time.Time `json:"cached_at"`
}

// Key hashes a raw fingerprint into its cache key.
func Key(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}

// Cache provides thread-safe access to the fingerprint cache. A zero TTL
// keeps entries forever.
type Cache struct {
	path    string
	ttl     time.Duration
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a cache instance. If path is empty the cache is a no-op. The
// cache file is created lazily on first Store call.
func New(path string, ttl time.Duration, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "fpcache")

	c := &Cache{
		path:    path,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]Entry),
	}
	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load fingerprint cache; starting empty",
			logging.Error(err),
			logging.String("path", path))
	}
	return c
}

// Lookup returns the entry for the given cache key if present and unexpired.
// Expired entries are evicted on sight.
func (c *Cache) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" || c.path == "" {
		return Entry{}, false
	}

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found {
		return Entry{}, false
	}
	if c.ttl > 0 && time.Since(entry.CachedAt) > c.ttl {
		_ = c.Evict(key)
		return Entry{}, false
	}
	return entry, true
}

// Store adds or updates an entry and persists the cache to disk.
func (c *Cache) Store(entry Entry) error {
	entry.FingerprintHash = strings.TrimSpace(entry.FingerprintHash)
	if entry.FingerprintHash == "" {
		return errors.New("fingerprint hash cannot be empty")
	}
	if c.path == "" {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.FingerprintHash] = entry
	return c.persistLocked()
}

// Evict removes an entry by key and persists the change.
func (c *Cache) Evict(key string) error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.entries[key]; !found {
		return nil
	}
	delete(c.entries, key)
	return c.persistLocked()
}

// Len reports how many entries the cache currently holds.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// persistLocked writes the cache atomically: temp file then rename.
func (c *Cache) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
