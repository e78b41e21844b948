package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tonearm/internal/catalog"
	"tonearm/internal/ledger"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var category string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report quarantined files from the rejection manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			rejects, err := ctx.openLedger(logger)
			if err != nil {
				return err
			}

			entries := rejects.Entries(catalog.QuarantineCategory(category))
			summary := rejects.Summarize()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				return writeJSON(out, entries)
			case "csv":
				return writeEntriesCSV(out, entries)
			case "table", "":
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					status := "quarantined"
					if entry.Restored {
						status = "restored"
					}
					rows = append(rows, []string{
						entry.ID[:8],
						string(entry.Category),
						entry.OriginalPath,
						humanize.IBytes(uint64(entry.SizeBytes)),
						status,
						entry.RejectedAt.Format(time.DateOnly),
						entry.Reason,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Category", "Original path", "Size", "Status", "Date", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}))
				fmt.Fprintf(out, "%d quarantined (%s held), %d restored\n",
					summary.Total-summary.Restored, humanize.IBytes(uint64(summary.Bytes)), summary.Restored)
				return nil
			default:
				return fmt.Errorf("unknown report format %q (expected table, csv, or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category (duplicate, low_quality, corrupted)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, csv, or json")
	return cmd
}

func writeEntriesCSV(out io.Writer, entries []ledger.Entry) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{
		"id", "category", "original_path", "quarantine_path", "size_bytes", "reason", "rejected_at", "restored",
	}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{
			entry.ID,
			string(entry.Category),
			entry.OriginalPath,
			entry.QuarantinePath,
			strconv.FormatInt(entry.SizeBytes, 10),
			entry.Reason,
			entry.RejectedAt.Format(time.RFC3339),
			strconv.FormatBool(entry.Restored),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
