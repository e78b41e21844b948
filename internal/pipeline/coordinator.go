// Package pipeline coordinates the triage run: analysis, the corruption
// gate, duplicate resolution, and organization, in that order. Exactly one
// coordinator runs per state directory, enforced with a file lock. Workers
// compute per-file results; all catalog writes happen on the coordinating
// goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tonearm/internal/analysis"
	"tonearm/internal/catalog"
	"tonearm/internal/config"
	"tonearm/internal/dupes"
	"tonearm/internal/gate"
	"tonearm/internal/identify"
	"tonearm/internal/ledger"
	"tonearm/internal/logging"
	"tonearm/internal/media"
	"tonearm/internal/organizer"
	"tonearm/internal/quality"
	"tonearm/internal/services"
)

// ErrAlreadyRunning is returned when another pipeline instance holds the
// state-directory lock.
var ErrAlreadyRunning = errors.New("another pipeline instance is already running")

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID                 string
	Analyzed              int
	Review                int
	Failed                int
	Healthy               int
	QuarantinedCorrupted  int
	DuplicateGroups       int
	QuarantinedDuplicates int
	QuarantinedLowQuality int
	Organized             int
	ReclaimedBytes        int64
	Elapsed               time.Duration
	DefectCounts          []gate.DefectCount
}

// Coordinator owns the full run. Construct with New, then call Run once per
// invocation.
type Coordinator struct {
	cfg       *config.Config
	store     *catalog.Store
	rejects   *ledger.Ledger
	organizer *organizer.Organizer
	grouper   *dupes.Grouper
	gate      *gate.Gate
	analyze   *analyzeStage
	logger    *slog.Logger
	lock      *flock.Flock
}

// New wires a coordinator from its already-constructed parts.
func New(
	cfg *config.Config,
	store *catalog.Store,
	rejects *ledger.Ledger,
	org *organizer.Organizer,
	grouper *dupes.Grouper,
	corruptionGate *gate.Gate,
	resolver *identify.Resolver,
	healthScorer *analysis.Scorer,
	qualityScorer *quality.Scorer,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		store:     store,
		rejects:   rejects,
		organizer: org,
		grouper:   grouper,
		gate:      corruptionGate,
		analyze:   newAnalyzeStage(resolver, healthScorer, qualityScorer, logger),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		lock:      flock.New(cfg.LockPath()),
	}
}

// Run executes the phases in order. Every phase drains fully before the
// next starts, so a file never reaches duplicate grouping before its group
// peers are scored. Cancellation is honored between files and batches; a
// batch in flight at cancellation drains first, returning its unfinished
// files to discovered.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	locked, err := c.lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return Summary{}, ErrAlreadyRunning
	}
	defer func() {
		_ = c.lock.Unlock()
	}()

	summary := Summary{RunID: uuid.New().String()}
	started := time.Now()
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, c.logger)

	if reset, err := c.store.ResetStuckProcessing(ctx); err != nil {
		return summary, err
	} else if reset > 0 {
		logger.Info("rolled back interrupted files", logging.Int64("count", reset))
	}

	if err := c.runAnalysis(ctx, &summary); err != nil {
		return summary, err
	}
	if err := c.runGate(ctx, &summary); err != nil {
		return summary, err
	}
	if err := c.runDuplicates(ctx, &summary); err != nil {
		return summary, err
	}
	if err := c.runOrganize(ctx, &summary); err != nil {
		return summary, err
	}

	summary.Elapsed = time.Since(started)
	logger.Info("pipeline run complete",
		logging.String("run_id", summary.RunID),
		logging.Int("analyzed", summary.Analyzed),
		logging.Int("organized", summary.Organized),
		logging.Int("review", summary.Review),
		logging.Int("failed", summary.Failed),
		logging.Int64("reclaimed_bytes", summary.ReclaimedBytes),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// runAnalysis drains discovered files through the worker pool in batches.
func (c *Coordinator) runAnalysis(ctx context.Context, summary *Summary) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := c.store.NextBatch(ctx, catalog.StatusDiscovered, c.cfg.Pipeline.BatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := c.analyzeBatch(ctx, batch, summary); err != nil {
			return err
		}
	}
}

func (c *Coordinator) analyzeBatch(ctx context.Context, batch []*catalog.File, summary *Summary) error {
	runID, _ := services.RunIDFromContext(ctx)
	for _, file := range batch {
		file.Status = catalog.StatusAnalyzing
		file.RunID = runID
		if err := c.store.Update(ctx, file); err != nil {
			return err
		}
	}

	workers := c.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}

	type outcome struct {
		file *catalog.File
		err  error
	}
	jobs := make(chan *catalog.File)
	results := make(chan outcome)

	for i := 0; i < workers; i++ {
		go func() {
			for file := range jobs {
				fileCtx := services.WithFileID(ctx, file.ID)
				results <- outcome{file: file, err: c.analyze.Process(fileCtx, file)}
			}
		}()
	}
	// The feeder drains the whole batch unconditionally: the merge loop
	// below receives exactly len(batch) results, so an in-flight batch
	// always finishes. Workers surface cancellation per file instead.
	go func() {
		defer close(jobs)
		for _, file := range batch {
			jobs <- file
		}
	}()

	var firstErr error
	for range batch {
		result := <-results
		if err := c.mergeAnalysis(ctx, result.file, result.err, summary); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// mergeAnalysis applies one worker result. Runs only on the coordinating
// goroutine. Catalog writes use a detached context so draining a cancelled
// batch never strands files in analyzing.
func (c *Coordinator) mergeAnalysis(ctx context.Context, file *catalog.File, processErr error, summary *Summary) error {
	writeCtx := context.WithoutCancel(ctx)

	if processErr != nil {
		if errors.Is(processErr, context.Canceled) || errors.Is(processErr, context.DeadlineExceeded) {
			file.Status = catalog.StatusDiscovered
			if err := c.store.Update(writeCtx, file); err != nil {
				return err
			}
			return processErr
		}
		file.Status = catalog.StatusFailed
		file.ErrorMessage = processErr.Error()
		summary.Failed++
		c.logger.Warn("analysis failed",
			logging.String("path", file.Path),
			logging.Error(processErr))
		return c.store.Update(writeCtx, file)
	}

	if err := c.store.Update(writeCtx, file); err != nil {
		return err
	}
	switch file.Status {
	case catalog.StatusAnalyzed:
		summary.Analyzed++
	case catalog.StatusReview:
		summary.Review++
		return c.store.QueueForReview(writeCtx, catalog.ReviewEntry{
			FileHash:       file.Checksum,
			OriginalPath:   file.Path,
			CandidatesJSON: c.analyze.takeCandidates(file.ID),
		})
	}
	return nil
}

// runGate applies the corruption gate to analyzed files. Gate decisions are
// cheap; no worker pool.
func (c *Coordinator) runGate(ctx context.Context, summary *Summary) error {
	files, err := c.store.ListByStatus(ctx, catalog.StatusAnalyzed)
	if err != nil {
		return err
	}

	reports := make([]analysis.Report, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		health := analysis.ReportFromJSON(file.HealthJSON)
		reports = append(reports, health)

		verdict := c.gate.Check(&media.Info{
			Path:        file.Path,
			Size:        file.Size,
			DurationSec: file.DurationSec,
		}, health)
		if verdict.Pass {
			file.Status = catalog.StatusHealthy
			summary.Healthy++
		} else {
			quarantined, err := c.quarantine(ctx, file, catalog.QuarantineCorrupted, verdict.Reason, summary)
			if err != nil {
				return err
			}
			if quarantined {
				summary.QuarantinedCorrupted++
			}
			continue
		}
		if err := c.store.Update(ctx, file); err != nil {
			return err
		}
	}

	summary.DefectCounts = gate.DefectFrequency(reports)
	return nil
}

// runDuplicates groups healthy files, keeps one per group, quarantines the
// rest, then applies the low-quality floor to the surviving keepers.
func (c *Coordinator) runDuplicates(ctx context.Context, summary *Summary) error {
	files, err := c.store.ListByStatus(ctx, catalog.StatusHealthy)
	if err != nil {
		return err
	}

	groups := c.grouper.Group(files)
	summary.DuplicateGroups = len(groups)

	grouped := make(map[int64]bool)
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		keeper := group.Keeper()
		grouped[keeper.File.ID] = true
		keeper.File.Status = catalog.StatusKeeper
		if err := c.store.Update(ctx, keeper.File); err != nil {
			return err
		}

		for _, member := range group.Rejected() {
			grouped[member.File.ID] = true
			member.File.Status = catalog.StatusDuplicateMember
			if err := c.store.Update(ctx, member.File); err != nil {
				return err
			}
			reason := fmt.Sprintf("duplicate of %s (rank %d of %d, score %d vs %d)",
				keeper.File.Path, member.Rank, len(group.Members),
				member.Score.FinalScore, keeper.Score.FinalScore)
			quarantined, err := c.quarantine(ctx, member.File, catalog.QuarantineDuplicate, reason, summary)
			if err != nil {
				return err
			}
			if quarantined {
				summary.QuarantinedDuplicates++
				summary.ReclaimedBytes += member.File.Size
			}
		}
	}

	// Ungrouped healthy files are their own keepers.
	for _, file := range files {
		if grouped[file.ID] {
			continue
		}
		file.Status = catalog.StatusKeeper
		if err := c.store.Update(ctx, file); err != nil {
			return err
		}
	}

	return c.applyQualityFloor(ctx, summary)
}

// applyQualityFloor quarantines keepers scoring below the configured
// minimum. Runs after duplicate resolution so the group's best version is
// the one judged.
func (c *Coordinator) applyQualityFloor(ctx context.Context, summary *Summary) error {
	minKeep := c.cfg.Quality.MinKeepScore
	if minKeep <= 0 {
		return nil
	}
	keepers, err := c.store.ListByStatus(ctx, catalog.StatusKeeper)
	if err != nil {
		return err
	}
	for _, file := range keepers {
		if err := ctx.Err(); err != nil {
			return err
		}
		score := quality.ScoreFromJSON(file.QualityJSON)
		if score.FinalScore >= minKeep {
			continue
		}
		reason := fmt.Sprintf("quality score %d below minimum %d (grade %s)",
			score.FinalScore, minKeep, score.Grade)
		quarantined, err := c.quarantine(ctx, file, catalog.QuarantineLowQuality, reason, summary)
		if err != nil {
			return err
		}
		if quarantined {
			summary.QuarantinedLowQuality++
		}
	}
	return nil
}

// runOrganize moves keepers into the library.
func (c *Coordinator) runOrganize(ctx context.Context, summary *Summary) error {
	files, err := c.store.ListByStatus(ctx, catalog.StatusKeeper)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		record := identify.RecordFromJSON(file.MetadataJSON)
		if !record.Complete() {
			file.Status = catalog.StatusFailed
			file.ErrorMessage = "keeper reached organization without complete metadata"
			summary.Failed++
			if err := c.store.Update(ctx, file); err != nil {
				return err
			}
			continue
		}

		file.Status = catalog.StatusOrganizing
		if err := c.store.Update(ctx, file); err != nil {
			return err
		}

		destination, err := c.organizer.Organize(file, record)
		if err != nil {
			file.Status = catalog.StatusFailed
			file.ErrorMessage = err.Error()
			summary.Failed++
			c.logger.Warn("organize failed",
				logging.String("path", file.Path),
				logging.Error(err))
			if updateErr := c.store.Update(ctx, file); updateErr != nil {
				return updateErr
			}
			continue
		}

		file.Path = destination
		file.Status = catalog.StatusOrganized
		summary.Organized++
		if err := c.store.Update(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// quarantine moves the file through the ledger and records its terminal
// status. A failed move marks the file failed rather than aborting the run;
// the bool reports whether the file actually reached quarantine.
func (c *Coordinator) quarantine(ctx context.Context, file *catalog.File, category catalog.QuarantineCategory, reason string, summary *Summary) (bool, error) {
	entry, err := c.rejects.Reject(file, category, reason, summary.RunID)
	if err != nil {
		file.Status = catalog.StatusFailed
		file.ErrorMessage = err.Error()
		summary.Failed++
		return false, c.store.Update(ctx, file)
	}
	file.Path = entry.QuarantinePath
	file.Status = catalog.StatusQuarantined
	file.QuarantineReason = reason
	return true, c.store.Update(ctx, file)
}
