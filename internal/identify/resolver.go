package identify

import (
	"context"
	"log/slog"

	"tonearm/internal/catalog"
	"tonearm/internal/logging"
	"tonearm/internal/media"
)

// Strategy is one tier of the resolution chain. Attempt returns a complete
// record, or nil plus any partial candidates worth keeping for review. An
// error means the tier itself failed (I/O, network); the chain treats that
// as "no result" and moves on.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, file *catalog.File, info *media.Info) (*Record, []Candidate, error)
}

// Resolution is the outcome of running the chain for one file.
type Resolution struct {
	Record     *Record
	Candidates []Candidate
}

// Resolver runs an ordered strategy chain until one tier yields a complete
// record. The order is fixed at construction; tests reorder it freely.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewResolver constructs a resolver over the given chain.
func NewResolver(logger *slog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		logger:     logging.NewComponentLogger(logger, "identify"),
	}
}

// Resolve tries each tier in order. When every tier fails, the returned
// Resolution carries a nil Record and the accumulated candidates; the caller
// routes the file to the review queue. Resolve never fabricates placeholder
// identity data.
func (r *Resolver) Resolve(ctx context.Context, file *catalog.File, info *media.Info) (Resolution, error) {
	var gathered []Candidate

	for _, strategy := range r.strategies {
		if err := ctx.Err(); err != nil {
			return Resolution{Candidates: gathered}, err
		}

		record, candidates, err := strategy.Attempt(ctx, file, info)
		gathered = append(gathered, candidates...)
		if err != nil {
			// A failing tier is a missing result, not a failed file.
			r.logger.Debug("resolution tier failed; continuing chain",
				logging.String("tier", strategy.Name()),
				logging.String("path", file.Path),
				logging.Error(err))
			continue
		}
		if record.Complete() {
			return Resolution{Record: record, Candidates: gathered}, nil
		}
	}

	return Resolution{Candidates: gathered}, nil
}

// AcceptManual wraps reviewer-supplied metadata. Manual input is accepted
// verbatim at full confidence; validation happened at import time.
func AcceptManual(artist, title, album, genre string, year int) *Record {
	return &Record{
		Artist:     artist,
		Title:      title,
		Album:      album,
		Genre:      genre,
		Year:       year,
		Source:     SourceManual,
		Confidence: confidenceManual,
	}
}
