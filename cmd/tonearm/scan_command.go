package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonearm/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>...",
		Short: "Register audio files from source directories in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signalContext(cmd)
			defer stop()

			scan := scanner.New(store, logger)
			var total scanner.Stats
			for _, root := range args {
				stats, err := scan.Scan(runCtx, root)
				if err != nil {
					return fmt.Errorf("scan %s: %w", root, err)
				}
				total.Seen += stats.Seen
				total.Registered += stats.Registered
				total.Skipped += stats.Skipped
				total.Errors += stats.Errors
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d audio files: %d registered, %d already cataloged, %d errors\n",
				total.Seen, total.Registered, total.Skipped, total.Errors)
			return nil
		},
	}
}
