package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"tonearm/internal/analysis"
	"tonearm/internal/catalog"
	"tonearm/internal/config"
	"tonearm/internal/dupes"
	"tonearm/internal/fpcache"
	"tonearm/internal/gate"
	"tonearm/internal/identify"
	"tonearm/internal/ledger"
	"tonearm/internal/logging"
	"tonearm/internal/organizer"
	"tonearm/internal/pipeline"
	"tonearm/internal/quality"
	"tonearm/internal/services/acoustid"
	"tonearm/internal/services/flaccheck"
	"tonearm/internal/services/fpcalc"
	"tonearm/internal/services/musicbrainz"
	"tonearm/internal/textutil"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}

func (c *commandContext) openLedger(logger *slog.Logger) (*ledger.Ledger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.Paths.QuarantineDir, cfg.ManifestPath(), logger)
}

// buildCoordinator wires the full pipeline from configuration. The
// fingerprint tier is included only when fingerprinting is enabled; the
// tag and filename tiers always run.
func buildCoordinator(cfg *config.Config, store *catalog.Store, rejects *ledger.Ledger, logger *slog.Logger) (*pipeline.Coordinator, error) {
	aliases := textutil.NewAliasTable(cfg.Matching.ArtistAliases, cfg.Matching.SignatureStopWords)

	var strategies []identify.Strategy
	if cfg.Fingerprint.Enabled {
		fingerprinter, err := fpcalc.New(cfg.FpcalcBinary(), cfg.Fingerprint.MaxAudioSeconds, cfg.Fingerprint.TimeoutSeconds)
		if err != nil {
			return nil, err
		}
		recordings, err := acoustid.New(cfg.AcoustID.BaseURL, cfg.AcoustID.APIKey, cfg.AcoustID.RequestsPerSec)
		if err != nil {
			return nil, err
		}
		details, err := musicbrainz.New(cfg.MusicBrainz.BaseURL, cfg.MusicBrainz.UserAgent, cfg.MusicBrainz.RequestsPerSec)
		if err != nil {
			return nil, err
		}
		cache := fpcache.New(cfg.Fingerprint.CachePath,
			time.Duration(cfg.Fingerprint.CacheTTLDays)*24*time.Hour, logger)
		strategies = append(strategies, identify.NewFingerprintStrategy(
			fingerprinter, recordings, details, cache,
			cfg.AcoustID.MinConfidence, cfg.Matching.GenreByArtist, logger))
	}
	strategies = append(strategies,
		identify.NewTagStrategy(aliases, cfg.Matching.TitleCorrections, cfg.Matching.GenreByArtist),
		identify.NewFilenameStrategy(aliases))
	resolver := identify.NewResolver(logger, strategies...)

	var verifier analysis.LosslessVerifier
	if cfg.Analysis.VerifyLossless {
		client, err := flaccheck.New(cfg.FlacBinary(), cfg.Analysis.FlacTimeoutSec)
		if err != nil {
			return nil, err
		}
		verifier = client
	}

	return pipeline.New(
		cfg,
		store,
		rejects,
		organizer.New(cfg.Paths.LibraryDir, logger),
		dupes.NewGrouper(aliases, cfg.Matching.SignatureStopWords),
		gate.New(cfg.Analysis),
		resolver,
		analysis.NewScorer(cfg.Analysis, verifier, logger),
		quality.NewScorer(cfg.Quality.Profile),
		logger,
	), nil
}
