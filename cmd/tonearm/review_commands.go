package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/review"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Export and import the manual review queue",
	}
	reviewCmd.AddCommand(newReviewExportCommand(ctx))
	reviewCmd.AddCommand(newReviewImportCommand(ctx))
	return reviewCmd
}

func newReviewExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pending review entries as CSV",
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

			out := cmd.OutOrStdout()
			writer := out
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				writer = file
			}

			count, err := review.New(store, logger).Export(cmd.Context(), writer)
			if err != nil {
				return err
			}
			if outputPath != "" {
				fmt.Fprintf(out, "Exported %d pending review entries to %s\n", count, outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}

func newReviewImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Apply reviewed metadata and re-submit files to the pipeline",
		Args:  cobra.ExactArgs(1),
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

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			apply := func(applyCtx context.Context, fileHash string, record *identify.Record) error {
				return resubmitFile(applyCtx, store, fileHash, record)
			}
			result, err := review.New(store, logger).Import(cmd.Context(), file, apply)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d, rejected %d, skipped %d\n",
				result.Applied, result.Rejected, result.Skipped)
			for _, importErr := range result.Errors {
				fmt.Fprintf(out, "  error: %s\n", importErr)
			}
			return nil
		},
	}
	return cmd
}

// resubmitFile attaches reviewer metadata to the cataloged file and returns
// it to the analyzed state so the next run carries it through the gate,
// duplicate resolution, and organization.
func resubmitFile(ctx context.Context, store *catalog.Store, fileHash string, record *identify.Record) error {
	files, err := store.FindByChecksum(ctx, fileHash)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no cataloged file with hash %s", fileHash)
	}
	for _, file := range files {
		if file.Status != catalog.StatusReview {
			continue
		}
		file.MetadataJSON = record.ToJSON()
		file.Status = catalog.StatusAnalyzed
		if err := store.Update(ctx, file); err != nil {
			return err
		}
	}
	return nil
}
