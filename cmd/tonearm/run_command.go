package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tonearm/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sources []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the triage pipeline over cataloged files",
		Long: `Run analyzes discovered files, quarantines corrupted and low-quality
copies, resolves duplicates, and organizes the keepers into the library.
With --source, the directories are scanned first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if err := checkExternalTools(cfg); err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rejects, err := ctx.openLedger(logger)
			if err != nil {
				return err
			}

			runCtx, stop := signalContext(cmd)
			defer stop()

			if len(sources) > 0 {
				if err := scanSources(runCtx, store, logger, sources); err != nil {
					return err
				}
			}

			coordinator, err := buildCoordinator(cfg, store, rejects, logger)
			if err != nil {
				return err
			}
			summary, err := coordinator.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !stdoutIsTerminal() {
				return writeJSON(out, summaryPayload(summary))
			}
			fmt.Fprintln(out, renderSummary(summary))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "Directories to scan before the run")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run summary as JSON")
	return cmd
}

func renderSummary(summary pipeline.Summary) string {
	rows := [][]string{
		{"Analyzed", strconv.Itoa(summary.Analyzed)},
		{"Sent to review", strconv.Itoa(summary.Review)},
		{"Healthy", strconv.Itoa(summary.Healthy)},
		{"Quarantined corrupted", strconv.Itoa(summary.QuarantinedCorrupted)},
		{"Duplicate groups", strconv.Itoa(summary.DuplicateGroups)},
		{"Quarantined duplicates", strconv.Itoa(summary.QuarantinedDuplicates)},
		{"Quarantined low quality", strconv.Itoa(summary.QuarantinedLowQuality)},
		{"Organized", strconv.Itoa(summary.Organized)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Space reclaimed", humanize.IBytes(uint64(summary.ReclaimedBytes))},
		{"Elapsed", summary.Elapsed.Round(timeRounding).String()},
	}
	return renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

type summaryJSON struct {
	RunID                 string  `json:"run_id"`
	Analyzed              int     `json:"analyzed"`
	Review                int     `json:"review"`
	Healthy               int     `json:"healthy"`
	QuarantinedCorrupted  int     `json:"quarantined_corrupted"`
	DuplicateGroups       int     `json:"duplicate_groups"`
	QuarantinedDuplicates int     `json:"quarantined_duplicates"`
	QuarantinedLowQuality int     `json:"quarantined_low_quality"`
	Organized             int     `json:"organized"`
	Failed                int     `json:"failed"`
	ReclaimedBytes        int64   `json:"reclaimed_bytes"`
	ElapsedSeconds        float64 `json:"elapsed_seconds"`
}

func summaryPayload(summary pipeline.Summary) summaryJSON {
	return summaryJSON{
		RunID:                 summary.RunID,
		Analyzed:              summary.Analyzed,
		Review:                summary.Review,
		Healthy:               summary.Healthy,
		QuarantinedCorrupted:  summary.QuarantinedCorrupted,
		DuplicateGroups:       summary.DuplicateGroups,
		QuarantinedDuplicates: summary.QuarantinedDuplicates,
		QuarantinedLowQuality: summary.QuarantinedLowQuality,
		Organized:             summary.Organized,
		Failed:                summary.Failed,
		ReclaimedBytes:        summary.ReclaimedBytes,
		ElapsedSeconds:        summary.Elapsed.Seconds(),
	}
}
