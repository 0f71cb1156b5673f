package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strandhq/strand/backend/internal/database"
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/ranking"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute ranking scores for every live thread",
	Long: `Replays the score computation over all non-deleted threads from the
live engagement edges. Run it after changing RANKING_GRAVITY, or to repair
stats rows after manual data surgery.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := engagement.NewStore(database.DB)
		recalc := ranking.NewRecalculator(database.DB, store, cfg.RankingGravity)

		processed, err := recalc.RecalculateAll(context.Background())
		if err != nil {
			return fmt.Errorf("rescore aborted after %d threads: %w", processed, err)
		}

		fmt.Printf("Recomputed scores for %d threads (gravity=%.2f)\n", processed, cfg.RankingGravity)
		return nil
	},
}
