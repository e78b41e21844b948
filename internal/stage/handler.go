package stage

import (
	"context"

	"tonearm/internal/catalog"
)

// Handler describes the contract the pipeline coordinator needs from each
// stage. Process computes a file's next state; it must not touch shared
// state, because the coordinator runs it from multiple workers and applies
// results on a single goroutine.
type Handler interface {
	Name() string
	// From is the status whose files this stage consumes.
	From() catalog.Status
	// Working is the transient status held while the stage runs.
	Working() catalog.Status
	Process(ctx context.Context, file *catalog.File) error
	HealthCheck(ctx context.Context) Health
}
