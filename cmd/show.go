package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
	"github.com/pable/go-wp-metrics/internal/storage"
)

var showPlayerID string

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show stored match stats by id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight player id")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	match, err := db.GetMatchByPrefix(prefix)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", prefix)
		return nil
	}
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}

	stats, err := db.GetPlayerStatsByMatch(match.ID)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *match)
	report.PrintPlayerTable(stats, showPlayerID)

	seq := aggregator.SortMatches([]model.MatchRecord{*match})
	if len(match.Quarters) > 0 || len(match.Sprints) > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Quarters ---\n\n")
		report.PrintSprintTable(os.Stdout, aggregator.SprintSummary(seq), aggregator.QuarterSplit(seq))
	}

	goals := aggregator.PlayerMix(stats, model.GoalTypes, aggregator.ForPlayer(showPlayerID))
	if goals.Total > 0 {
		fmt.Fprintf(os.Stdout, "\n--- Goal types ---\n\n")
		report.PrintMixTable(os.Stdout, goals)
	}
	return nil
}
