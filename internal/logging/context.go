package logging

import (
	"context"
	"log/slog"

	"tonearm/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldFileID is the standardized structured logging key for catalog file identifiers.
	FieldFileID = "file_id"
	// FieldPhase is the standardized structured logging key for pipeline phase names.
	FieldPhase = "phase"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldBatch is the standardized structured logging key for 1-based batch indexes.
	FieldBatch = "batch"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	attrs := make([]Attr, 0, 4)
	if id, ok := services.FileIDFromContext(ctx); ok {
		attrs = append(attrs, Int64(FieldFileID, id))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		attrs = append(attrs, String(FieldPhase, phase))
	}
	if runID, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, runID))
	}
	return attrs
}

// WithContext returns a logger annotated with any pipeline identifiers carried
// by the context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
