package identify

import (
	"context"
	"errors"
	"testing"

	"tonearm/internal/catalog"
	"tonearm/internal/logging"
	"tonearm/internal/media"
)

type stubStrategy struct {
	name       string
	record     *Record
	candidates []Candidate
	err        error
	calls      int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(context.Context, *catalog.File, *media.Info) (*Record, []Candidate, error) {
	s.calls++
	return s.record, s.candidates, s.err
}

func TestResolveStopsAtFirstCompleteRecord(t *testing.T) {
	first := &stubStrategy{name: "first", record: &Record{Artist: "Moby", Title: "Porcelain", Source: SourceFingerprint}}
	second := &stubStrategy{name: "second"}
	resolver := NewResolver(logging.NewNop(), first, second)

	resolution, err := resolver.Resolve(context.Background(), &catalog.File{Path: "/x.mp3"}, &media.Info{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.Record == nil || resolution.Record.Artist != "Moby" {
		t.Fatalf("unexpected record %+v", resolution.Record)
	}
	if second.calls != 0 {
		t.Fatal("later tiers should not run after a complete record")
	}
}

func TestResolveContinuesPastFailedTier(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: errors.New("network down")}
	fallback := &stubStrategy{name: "fallback", record: &Record{Artist: "Moby", Title: "Porcelain", Source: SourceFilename}}
	resolver := NewResolver(logging.NewNop(), failing, fallback)

	resolution, err := resolver.Resolve(context.Background(), &catalog.File{Path: "/x.mp3"}, &media.Info{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.Record == nil || resolution.Record.Source != SourceFilename {
		t.Fatalf("expected fallback record, got %+v", resolution.Record)
	}
}

func TestResolveGathersCandidatesWhenNoTierSucceeds(t *testing.T) {
	partial := &stubStrategy{name: "partial", candidates: []Candidate{
		{Source: SourceFingerprint, Artist: "Maybe", Confidence: 0.4},
	}}
	empty := &stubStrategy{name: "empty"}
	resolver := NewResolver(logging.NewNop(), partial, empty)

	resolution, err := resolver.Resolve(context.Background(), &catalog.File{Path: "/x.mp3"}, &media.Info{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.Record != nil {
		t.Fatalf("expected no record, got %+v", resolution.Record)
	}
	if len(resolution.Candidates) != 1 || resolution.Candidates[0].Artist != "Maybe" {
		t.Fatalf("unexpected candidates %+v", resolution.Candidates)
	}
}

func TestResolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategy := &stubStrategy{name: "never"}
	resolver := NewResolver(logging.NewNop(), strategy)

	_, err := resolver.Resolve(ctx, &catalog.File{Path: "/x.mp3"}, &media.Info{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if strategy.calls != 0 {
		t.Fatal("strategy must not run after cancellation")
	}
}

func TestAcceptManualIsFullConfidence(t *testing.T) {
	record := AcceptManual("Underworld", "Born Slippy", "", "Electronic", 1996)
	if !record.Complete() {
		t.Fatal("manual record should be complete")
	}
	if record.Source != SourceManual || record.Confidence != 1.0 {
		t.Fatalf("unexpected source/confidence: %+v", record)
	}
}
