package identify

import (
	"context"
	"log/slog"
	"strings"

	"tonearm/internal/catalog"
	"tonearm/internal/fpcache"
	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/services"
	"tonearm/internal/services/acoustid"
	"tonearm/internal/services/fpcalc"
	"tonearm/internal/services/musicbrainz"
)

// Fingerprinter computes an acoustic fingerprint for a file.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (fpcalc.Result, error)
}

// RecordingLookup resolves a fingerprint to candidate recordings.
type RecordingLookup interface {
	Lookup(ctx context.Context, fingerprint string, durationSec float64) ([]acoustid.Candidate, error)
}

// DetailLookup fetches secondary metadata for a matched recording.
type DetailLookup interface {
	Recording(ctx context.Context, recordingID string) (musicbrainz.RecordingDetail, error)
}

// MatchCache is the injected fingerprint cache. Owned by the strategy
// instance, not process-wide, so concurrent pipelines don't interfere.
type MatchCache interface {
	Lookup(key string) (fpcache.Entry, bool)
	Store(entry fpcache.Entry) error
}

// FingerprintStrategy is resolution tier one: fingerprint the file, consult
// the local cache, then the identification service, then the secondary
// metadata service.
type FingerprintStrategy struct {
	fingerprinter Fingerprinter
	recordings    RecordingLookup
	details       DetailLookup
	cache         MatchCache
	minConfidence float64
	retry         services.RetryPolicy
	genreByArtist map[string]string
	logger        *slog.Logger
}

// NewFingerprintStrategy wires the fingerprint tier. details may be nil;
// enrichment is skipped then.
func NewFingerprintStrategy(
	fingerprinter Fingerprinter,
	recordings RecordingLookup,
	details DetailLookup,
	cache MatchCache,
	minConfidence float64,
	genreByArtist map[string]string,
	logger *slog.Logger,
) *FingerprintStrategy {
	return &FingerprintStrategy{
		fingerprinter: fingerprinter,
		recordings:    recordings,
		details:       details,
		cache:         cache,
		minConfidence: minConfidence,
		retry:         services.DefaultRetryPolicy(),
		genreByArtist: genreByArtist,
		logger:        logging.NewComponentLogger(logger, "identify.fingerprint"),
	}
}

func (s *FingerprintStrategy) Name() string { return "fingerprint" }

// Attempt fingerprints the file and looks the print up. Matches below the
// confidence floor are never accepted as final metadata; they come back as
// candidates for the review queue only.
func (s *FingerprintStrategy) Attempt(ctx context.Context, file *catalog.File, info *media.Info) (*Record, []Candidate, error) {
	if s.fingerprinter == nil || s.recordings == nil {
		return nil, nil, nil
	}

	fingerprint := file.Fingerprint
	durationSec := info.DurationSec
	if fingerprint == "" {
		result, err := s.fingerprinter.Fingerprint(ctx, file.Path)
		if err != nil {
			return nil, nil, err
		}
		fingerprint = result.Fingerprint
		if result.DurationSec > 0 {
			durationSec = result.DurationSec
		}
		// The print doubles as the duplicate-group key; keep it on the
		// record even when identification fails below.
		file.Fingerprint = fingerprint
	}

	cacheKey := fpcache.Key(fingerprint)
	if s.cache != nil {
		if entry, found := s.cache.Lookup(cacheKey); found {
			return s.recordFromCache(entry), nil, nil
		}
	}

	var candidates []acoustid.Candidate
	err := services.Retry(ctx, s.retry, func(ctx context.Context) error {
		var lookupErr error
		candidates, lookupErr = s.recordings.Lookup(ctx, fingerprint, durationSec)
		return lookupErr
	})
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	best := candidates[0]
	if best.Score < s.minConfidence || !ValidNamePart(best.Artist) || !ValidNamePart(best.Title) {
		return nil, retainCandidates(candidates), nil
	}

	record := &Record{
		Artist:     best.Artist,
		Title:      best.Title,
		Source:     SourceFingerprint,
		Confidence: best.Score,
	}
	s.enrich(ctx, record, best.RecordingID)

	if s.cache != nil {
		if err := s.cache.Store(fpcache.Entry{
			FingerprintHash: cacheKey,
			RecordingID:     best.RecordingID,
			Artist:          record.Artist,
			Title:           record.Title,
			Album:           record.Album,
			Genre:           record.Genre,
			Year:            record.Year,
			Confidence:      record.Confidence,
		}); err != nil {
			s.logger.Warn("fingerprint cache store failed", logging.Error(err))
		}
	}

	return record, nil, nil
}

func (s *FingerprintStrategy) recordFromCache(entry fpcache.Entry) *Record {
	return &Record{
		Artist:     entry.Artist,
		Title:      entry.Title,
		Album:      entry.Album,
		Genre:      entry.Genre,
		Year:       entry.Year,
		Source:     SourceFingerprintCached,
		Confidence: confidenceCached,
	}
}

// enrich adds genre/album/year from the secondary service, falling back to
// the configured genre table. Enrichment failures never fail the tier.
func (s *FingerprintStrategy) enrich(ctx context.Context, record *Record, recordingID string) {
	if s.details != nil && recordingID != "" {
		detail, err := s.details.Recording(ctx, recordingID)
		if err != nil {
			s.logger.Debug("secondary metadata lookup failed",
				logging.String("recording_id", recordingID),
				logging.Error(err))
		} else {
			record.Genre = detail.Genre
			record.Album = detail.Album
			record.Year = detail.Year
		}
	}
	if record.Genre == "" && len(s.genreByArtist) > 0 {
		if genre, ok := s.genreByArtist[strings.ToLower(record.Artist)]; ok {
			record.Genre = genre
		}
	}
}

// retainCandidates converts sub-floor service matches into review-queue
// candidates, capped to the plausible few.
func retainCandidates(matches []acoustid.Candidate) []Candidate {
	limit := len(matches)
	if limit > 5 {
		limit = 5
	}
	retained := make([]Candidate, 0, limit)
	for _, match := range matches[:limit] {
		retained = append(retained, Candidate{
			Source:      SourceFingerprint,
			Artist:      match.Artist,
			Title:       match.Title,
			RecordingID: match.RecordingID,
			Confidence:  match.Score,
		})
	}
	return retained
}
