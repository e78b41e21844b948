package config

const (
	defaultLibraryDir    = "~/music/library"
	defaultQuarantineDir = "~/music/quarantine"
	defaultStateDir      = "~/.local/share/tonearm"
	defaultLogDir        = "~/.local/share/tonearm/logs"

	defaultFingerprintMaxAudio = 120
	defaultFingerprintTimeout  = 30
	defaultFingerprintTTLDays  = 180

	defaultAcoustIDBaseURL  = "https://api.acoustid.org/v2"
	defaultAcoustIDMinConf  = 0.85
	defaultAcoustIDRate     = 3.0
	defaultMusicBrainzURL   = "https://musicbrainz.org/ws/2"
	defaultMusicBrainzAgent = "tonearm/dev ( https://github.com/tonearm/tonearm )"
	defaultMusicBrainzRate  = 1.0

	defaultMinHealthScore    = 30
	defaultDurationTolerance = 0.10
	defaultMinDurationSec    = 10
	defaultMaxDurationSec    = 3600
	defaultMinFileSizeBytes  = 100 * 1024
	defaultFlacTimeoutSec    = 30

	defaultQualityProfile = "casual"
	defaultMinKeepScore   = 40

	defaultBatchSize = 1000
	defaultWorkers   = 8

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

var defaultSignatureStopWords = []string{"the", "a", "an", "feat", "ft", "featuring"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:    defaultLibraryDir,
			QuarantineDir: defaultQuarantineDir,
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
		},
		Fingerprint: Fingerprint{
			Enabled:         true,
			MaxAudioSeconds: defaultFingerprintMaxAudio,
			TimeoutSeconds:  defaultFingerprintTimeout,
			CacheTTLDays:    defaultFingerprintTTLDays,
		},
		AcoustID: AcoustID{
			BaseURL:        defaultAcoustIDBaseURL,
			MinConfidence:  defaultAcoustIDMinConf,
			RequestsPerSec: defaultAcoustIDRate,
		},
		MusicBrainz: MusicBrainz{
			BaseURL:        defaultMusicBrainzURL,
			UserAgent:      defaultMusicBrainzAgent,
			RequestsPerSec: defaultMusicBrainzRate,
		},
		Analysis: Analysis{
			MinHealthScore:    defaultMinHealthScore,
			DurationTolerance: defaultDurationTolerance,
			MinDurationSec:    defaultMinDurationSec,
			MaxDurationSec:    defaultMaxDurationSec,
			MinFileSizeBytes:  defaultMinFileSizeBytes,
			VerifyLossless:    false,
			FlacTimeoutSec:    defaultFlacTimeoutSec,
		},
		Quality: Quality{
			Profile:      defaultQualityProfile,
			MinKeepScore: defaultMinKeepScore,
		},
		Matching: Matching{
			ArtistAliases:      map[string][]string{},
			GenreByArtist:      map[string]string{},
			TitleCorrections:   map[string]string{},
			SignatureStopWords: append([]string(nil), defaultSignatureStopWords...),
		},
		Pipeline: Pipeline{
			BatchSize: defaultBatchSize,
			Workers:   defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
