package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildOverlaysCmd = &cobra.Command{
	Use:   "rebuild-overlays [owner-id]",
	Short: "Rebuild the association graph and vector index for one or all owners",
	Long: `Re-derives the in-memory association graph and vector index from the
structured index's durable state. Run this after an embedding provider
outage leaves records without a vector, or after changing the vector
index's parameters.

With no argument, every owner under the data root is rebuilt.`,
	Args: cobra.MaximumNArgs(1),
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

		for _, ownerID := range owners {
			if err := svc.RebuildOverlays(ownerID); err != nil {
				return fmt.Errorf("rebuild overlays for %s: %w", ownerID, err)
			}
			fmt.Printf("rebuilt overlays for %s\n", ownerID)
		}
		return nil
	},
}
