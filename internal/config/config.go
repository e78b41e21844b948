package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir    string `toml:"library_dir"`
	QuarantineDir string `toml:"quarantine_dir"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
}

// Fingerprint contains configuration for acoustic fingerprinting via fpcalc.
type Fingerprint struct {
	Enabled         bool   `toml:"enabled"`
	MaxAudioSeconds int    `toml:"max_audio_seconds"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheTTLDays    int    `toml:"cache_ttl_days"`
	CachePath       string `toml:"cache_path"`
}

// AcoustID contains configuration for the recording-identification service.
type AcoustID struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	MinConfidence  float64 `toml:"min_confidence"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// MusicBrainz contains configuration for the secondary metadata service.
type MusicBrainz struct {
	BaseURL        string  `toml:"base_url"`
	UserAgent      string  `toml:"user_agent"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// Analysis contains thresholds for health scoring and the corruption gate.
type Analysis struct {
	MinHealthScore    int     `toml:"min_health_score"`
	DurationTolerance float64 `toml:"duration_tolerance"`
	MinDurationSec    float64 `toml:"min_duration_sec"`
	MaxDurationSec    float64 `toml:"max_duration_sec"`
	MinFileSizeBytes  int64   `toml:"min_file_size_bytes"`
	VerifyLossless    bool    `toml:"verify_lossless"`
	FlacTimeoutSec    int     `toml:"flac_timeout_sec"`
}

// Quality contains scoring profile selection and disposition thresholds.
type Quality struct {
	Profile      string `toml:"profile"`
	MinKeepScore int    `toml:"min_keep_score"`
}

// Matching contains the data-driven tables used for metadata normalization
// and duplicate signature building.
type Matching struct {
	// ArtistAliases maps a canonical artist name to its known spelling
	// variants, e.g. "AC/DC" -> ["ACDC", "AC-DC"].
	ArtistAliases map[string][]string `toml:"artist_aliases"`
	// GenreByArtist supplies a genre when no service returns one.
	GenreByArtist map[string]string `toml:"genre_by_artist"`
	// TitleCorrections rewrites known-bad titles after parsing.
	TitleCorrections map[string]string `toml:"title_corrections"`
	// SignatureStopWords are removed from normalized artist/title signatures.
	SignatureStopWords []string `toml:"signature_stop_words"`
}

// Pipeline contains batch sizing and worker pool limits.
type Pipeline struct {
	BatchSize int `toml:"batch_size"`
	Workers   int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tonearm.
//
// Configuration sections by subsystem:
//   - Paths: library, quarantine, state, and log directories
//   - Fingerprint: fpcalc invocation and fingerprint cache
//   - AcoustID: recording identification service
//   - MusicBrainz: secondary metadata service
//   - Analysis: health scoring and corruption gate thresholds
//   - Quality: scoring profile and low-quality threshold
//   - Matching: alias and correction tables
//   - Pipeline: batch size and worker pool bounds
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Fingerprint Fingerprint `toml:"fingerprint"`
	AcoustID    AcoustID    `toml:"acoustid"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	Analysis    Analysis    `toml:"analysis"`
	Quality     Quality     `toml:"quality"`
	Matching    Matching    `toml:"matching"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tonearm/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to target.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tonearm.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// LibraryDir is created on a best-effort basis so startup succeeds when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.QuarantineDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// FpcalcBinary returns the Chromaprint fingerprinting executable name.
func (c *Config) FpcalcBinary() string {
	return "fpcalc"
}

// FlacBinary returns the FLAC integrity validator executable name.
func (c *Config) FlacBinary() string {
	return "flac"
}

// DatabasePath returns the catalog database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "catalog.db")
}

// ManifestPath returns the rejection manifest location.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.QuarantineDir, "manifest.json")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "tonearm.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
