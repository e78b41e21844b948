package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tonearm/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !stdoutIsTerminal() {
				return writeJSON(out, statusPayload(summary))
			}
			rows := [][]string{
				{"Total", strconv.Itoa(summary.Total)},
				{"Discovered", strconv.Itoa(summary.Discovered)},
				{"Processing", strconv.Itoa(summary.Processing)},
				{"Healthy", strconv.Itoa(summary.Healthy)},
				{"Quarantined", strconv.Itoa(summary.Quarantined)},
				{"Organized", strconv.Itoa(summary.Organized)},
				{"Awaiting review", strconv.Itoa(summary.Review)},
				{"Failed", strconv.Itoa(summary.Failed)},
			}
			fmt.Fprintln(out, renderTable([]string{"State", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

type statusJSON struct {
	Total       int `json:"total"`
	Discovered  int `json:"discovered"`
	Processing  int `json:"processing"`
	Healthy     int `json:"healthy"`
	Quarantined int `json:"quarantined"`
	Organized   int `json:"organized"`
	Review      int `json:"review"`
	Failed      int `json:"failed"`
}

func statusPayload(summary catalog.HealthSummary) statusJSON {
	return statusJSON{
		Total:       summary.Total,
		Discovered:  summary.Discovered,
		Processing:  summary.Processing,
		Healthy:     summary.Healthy,
		Quarantined: summary.Quarantined,
		Organized:   summary.Organized,
		Review:      summary.Review,
		Failed:      summary.Failed,
	}
}
