package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
)

var (
	scoreUserID   string
	scorePlayerID string
	scoreLimit    int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Composite scores from a user's weight maps",
	Long: `Score every stat row of the selected club and season with the user's
weight maps: field players use the field map and goalkeepers the goalkeeper map.
Weights that are not finite numbers are ignored.

With --player, print that player's score per match as a series instead.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreUserID, "user", os.Getenv("WPMETRICS_USER"), "weight map owner (env WPMETRICS_USER)")
	scoreCmd.Flags().StringVar(&scorePlayerID, "player", "", "print one player's score series")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 20, "rows to print (0 = all)")
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreUserID == "" {
		return errors.New("--user is required")
	}
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	snap, err := loadSnapshot(ctx, db)
	if err != nil {
		return err
	}
	field, err := db.FetchWeightMap(ctx, scoreUserID, model.RoleField)
	if err != nil {
		return fmt.Errorf("fetch field weights: %w", err)
	}
	gk, err := db.FetchWeightMap(ctx, scoreUserID, model.RoleGoalkeeper)
	if err != nil {
		return fmt.Errorf("fetch goalkeeper weights: %w", err)
	}
	if len(field) == 0 && len(gk) == 0 {
		fmt.Fprintf(os.Stdout, "User %s has no weights yet. Use 'wpmetrics weights set' to add some.\n", scoreUserID)
		return nil
	}

	if scorePlayerID != "" {
		weights := field
		for _, s := range snap.Stats {
			if s.PlayerID == scorePlayerID && s.Role == model.RoleGoalkeeper {
				weights = gk
				break
			}
		}
		pts := aggregator.ScoreSeries(snap.Matches, snap.Stats, scorePlayerID, weights)
		report.PrintSeriesTable(os.Stdout, snap.Matches, pts, "SCORE")
		return nil
	}

	report.PrintScoreboard(os.Stdout, aggregator.Scoreboard(snap.Stats, field, gk), scoreLimit)
	return nil
}
