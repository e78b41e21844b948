package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Violations are fatal at
// startup; the pipeline never runs with an invalid threshold set.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		return errors.New("paths.quarantine_dir must be set")
	}
	if c.Paths.QuarantineDir == c.Paths.LibraryDir {
		return errors.New("paths.quarantine_dir must differ from paths.library_dir")
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.Fingerprint.Enabled && c.AcoustID.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/tonearm/config.toml"
		}
		return fmt.Errorf("acoustid.api_key is required when fingerprint.enabled is true. Edit %s (create with 'tonearm config init') or disable fingerprinting", defaultPath)
	}
	if c.AcoustID.MinConfidence < 0 || c.AcoustID.MinConfidence > 1 {
		return errors.New("acoustid.min_confidence must be between 0 and 1")
	}
	if c.AcoustID.RequestsPerSec > 3 {
		return errors.New("acoustid.requests_per_sec must not exceed 3 (service quota)")
	}
	if c.MusicBrainz.RequestsPerSec > 1 {
		return errors.New("musicbrainz.requests_per_sec must not exceed 1 (service quota)")
	}
	if strings.TrimSpace(c.MusicBrainz.UserAgent) == "" {
		return errors.New("musicbrainz.user_agent must identify this client")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.MinHealthScore < 0 || c.Analysis.MinHealthScore > 100 {
		return errors.New("analysis.min_health_score must be between 0 and 100")
	}
	if c.Analysis.DurationTolerance <= 0 || c.Analysis.DurationTolerance >= 1 {
		return errors.New("analysis.duration_tolerance must be between 0 and 1 exclusive")
	}
	if c.Analysis.MinDurationSec < 0 {
		return errors.New("analysis.min_duration_sec must not be negative")
	}
	if c.Analysis.MaxDurationSec <= c.Analysis.MinDurationSec {
		return errors.New("analysis.max_duration_sec must exceed analysis.min_duration_sec")
	}
	return nil
}

func (c *Config) validateQuality() error {
	switch c.Quality.Profile {
	case "casual", "professional", "archival":
	default:
		return fmt.Errorf("quality.profile must be one of casual, professional, archival; got %q", c.Quality.Profile)
	}
	if c.Quality.MinKeepScore < 0 || c.Quality.MinKeepScore > 100 {
		return errors.New("quality.min_keep_score must be between 0 and 100")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers > 64 {
		return errors.New("pipeline.workers must not exceed 64")
	}
	return nil
}
