package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tonearm/internal/analysis"
	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/quality"
	"tonearm/internal/stage"
)

// analyzeStage probes, identifies, and scores discovered files. Process is
// safe for concurrent workers: it mutates only the file it was handed plus
// the mutex-guarded candidate stash.
type analyzeStage struct {
	resolver *identify.Resolver
	health   *analysis.Scorer
	quality  *quality.Scorer
	logger   *slog.Logger

	mu         sync.Mutex
	candidates map[int64]string
}

func newAnalyzeStage(resolver *identify.Resolver, health *analysis.Scorer, qualityScorer *quality.Scorer, logger *slog.Logger) *analyzeStage {
	return &analyzeStage{
		resolver:   resolver,
		health:     health,
		quality:    qualityScorer,
		logger:     logging.NewComponentLogger(logger, "analyze"),
		candidates: make(map[int64]string),
	}
}

func (s *analyzeStage) Name() string            { return "analyze" }
func (s *analyzeStage) From() catalog.Status    { return catalog.StatusDiscovered }
func (s *analyzeStage) Working() catalog.Status { return catalog.StatusAnalyzing }

func (s *analyzeStage) HealthCheck(context.Context) stage.Health {
	if s.resolver == nil || s.health == nil || s.quality == nil {
		return stage.Unhealthy("analyze", "stage not fully wired")
	}
	return stage.Healthy("analyze")
}

// Process computes the file's structural, identity, health, and quality
// attributes and sets its post-analysis status. A probe failure fails the
// file; a failed identification routes it to review.
func (s *analyzeStage) Process(ctx context.Context, file *catalog.File) error {
	info, err := media.Probe(file.Path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", file.Path, err)
	}

	file.Format = info.Format.String()
	file.DurationSec = info.DurationSec
	file.BitrateKbps = info.BitrateKbps
	file.SampleRate = info.SampleRate
	file.Channels = info.Channels

	resolution, err := s.resolver.Resolve(ctx, file, info)
	if err != nil {
		return err
	}

	healthReport := s.health.Score(ctx, info)
	file.HealthJSON = healthReport.ToJSON()

	score := s.quality.Score(quality.Inputs{
		Format:      info.Format,
		BitrateKbps: info.BitrateKbps,
		SampleRate:  info.SampleRate,
	}, healthReport)
	file.QualityJSON = score.ToJSON()

	if resolution.Record.Complete() {
		file.MetadataJSON = resolution.Record.ToJSON()
		file.Status = catalog.StatusAnalyzed
		return nil
	}

	// Unresolvable files still carry their analysis results into the
	// review queue; nothing is guessed on their behalf.
	file.Status = catalog.StatusReview
	s.stashCandidates(file.ID, identify.CandidatesToJSON(resolution.Candidates))
	return nil
}

func (s *analyzeStage) stashCandidates(fileID int64, candidatesJSON string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[fileID] = candidatesJSON
}

// takeCandidates hands the stashed candidate set to the merge goroutine.
func (s *analyzeStage) takeCandidates(fileID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidatesJSON := s.candidates[fileID]
	delete(s.candidates, fileID)
	return candidatesJSON
}
