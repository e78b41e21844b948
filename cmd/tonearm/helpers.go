package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tonearm/internal/catalog"
	"tonearm/internal/scanner"
)

const timeRounding = 10 * time.Millisecond

func scanSources(ctx context.Context, store *catalog.Store, logger *slog.Logger, sources []string) error {
	scan := scanner.New(store, logger)
	for _, root := range sources {
		if _, err := scan.Scan(ctx, root); err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return nil
}
