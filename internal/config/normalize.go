package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFingerprint(); err != nil {
		return err
	}
	c.normalizeServices()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.QuarantineDir, err = expandPath(c.Paths.QuarantineDir); err != nil {
		return fmt.Errorf("paths.quarantine_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFingerprint() error {
	if c.Fingerprint.MaxAudioSeconds <= 0 {
		c.Fingerprint.MaxAudioSeconds = defaultFingerprintMaxAudio
	}
	if c.Fingerprint.TimeoutSeconds <= 0 {
		c.Fingerprint.TimeoutSeconds = defaultFingerprintTimeout
	}
	if c.Fingerprint.CachePath == "" {
		c.Fingerprint.CachePath = c.Paths.StateDir + "/fpcache.json"
	}
	var err error
	if c.Fingerprint.CachePath, err = expandPath(c.Fingerprint.CachePath); err != nil {
		return fmt.Errorf("fingerprint.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeServices() {
	c.AcoustID.BaseURL = strings.TrimRight(strings.TrimSpace(c.AcoustID.BaseURL), "/")
	if c.AcoustID.BaseURL == "" {
		c.AcoustID.BaseURL = defaultAcoustIDBaseURL
	}
	if c.AcoustID.RequestsPerSec <= 0 {
		c.AcoustID.RequestsPerSec = defaultAcoustIDRate
	}
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMusicBrainzURL
	}
	if c.MusicBrainz.RequestsPerSec <= 0 {
		c.MusicBrainz.RequestsPerSec = defaultMusicBrainzRate
	}
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = defaultBatchSize
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
