package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var archiveOldMaxAgeDays int

var archiveOldCmd = &cobra.Command{
	Use:   "archive-old [owner-id]",
	Short: "Run a consolidation pass, archiving qualifying records into the compressed tier",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := bootstrap()
		if err != nil {
			return err
		}

		owners := args
		if len(owners) == 0 {
			all, err := svc.Owners()
			if err != nil {
				return fmt.Errorf("list owners: %w", err)
			}
			owners = all
		}

		ctx := context.Background()
		for _, ownerID := range owners {
			n, err := svc.ArchiveOld(ctx, ownerID, archiveOldMaxAgeDays)
			if err != nil {
				return fmt.Errorf("archive old records for %s: %w", ownerID, err)
			}
			fmt.Printf("%s: archived %d records\n", ownerID, n)
		}
		return nil
	},
}

func init() {
	archiveOldCmd.Flags().IntVar(&archiveOldMaxAgeDays, "max-age-days", -1,
		"only archive records older than this many days (negative uses the configured default)")
}
