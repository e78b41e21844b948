package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonearm/internal/catalog"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var category string

	cmd := &cobra.Command{
		Use:   "restore [entry-id]",
		Short: "Restore quarantined files to their original locations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("specify an entry id or --all")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			rejects, err := ctx.openLedger(logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				entry, err := rejects.Restore(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Restored %s\n", entry.OriginalPath)
				return nil
			}

			restored := 0
			for _, entry := range rejects.Entries(catalog.QuarantineCategory(category)) {
				if entry.Restored {
					continue
				}
				if _, err := rejects.Restore(entry.ID); err != nil {
					return fmt.Errorf("restore %s: %w", entry.OriginalPath, err)
				}
				restored++
			}
			fmt.Fprintf(out, "Restored %d files\n", restored)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Restore every non-restored manifest entry")
	cmd.Flags().StringVar(&category, "category", "", "With --all, restrict to one category")
	return cmd
}
