package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rpggio/synapse/internal/domain/record"
)

var statsCmd = &cobra.Command{
	Use:   "stats [owner-id]",
	Short: "Report record counts for one or all owners",
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
			s, err := svc.RecordStats(ctx, ownerID)
			if err != nil {
				return fmt.Errorf("record stats for %s: %w", ownerID, err)
			}
			fmt.Printf("%s: %d total, %d archived\n", ownerID, s.Total, s.Archived)

			types := make([]record.Type, 0, len(s.ByType))
			for t := range s.ByType {
				types = append(types, t)
			}
			sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
			for _, t := range types {
				fmt.Printf("  %s: %d\n", t, s.ByType[t])
			}
		}
		return nil
	},
}
