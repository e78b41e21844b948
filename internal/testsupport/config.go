package testsupport

import (
	"path/filepath"
	"testing"

	"tonearm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Fingerprinting is disabled by default so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.QuarantineDir = filepath.Join(base, "quarantine")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Fingerprint.Enabled = false
	cfg.Fingerprint.CachePath = filepath.Join(base, "state", "fpcache.json")
	cfg.AcoustID.APIKey = "test"
	cfg.MusicBrainz.UserAgent = "tonearm-test/0.0 (test@example.com)"
	cfg.Pipeline.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithFingerprinting enables the fingerprint tier on the test config.
func WithFingerprinting() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Fingerprint.Enabled = true
	}
}

// WithProfile selects the quality weighting profile on the test config.
func WithProfile(profile string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Quality.Profile = profile
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
