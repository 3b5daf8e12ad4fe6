package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/report"
)

var sprintsPlayerID string

var sprintsCmd = &cobra.Command{
	Use:   "sprints",
	Short: "Opening sprints won and goals per quarter",
	Long: `Summarize each quarter over the selected club and season: how many opening
sprints were recorded and won, and goals for and against.

A sprint counts as won when either its won flag or its winner reference is set.`,
	Args: cobra.NoArgs,
	RunE: runSprints,
}

func init() {
	sprintsCmd.Flags().StringVar(&sprintsPlayerID, "player", "", "also count sprints won by this player id")
}

func runSprints(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}
	if snap.Matches.Len() == 0 {
		fmt.Println("no matches found")
		return nil
	}
	report.PrintSprintTable(os.Stdout, aggregator.SprintSummary(snap.Matches), aggregator.QuarterSplit(snap.Matches))
	if sprintsPlayerID != "" {
		fmt.Fprintf(os.Stdout, "\nSprints won by %s: %d\n", sprintsPlayerID, aggregator.SprintsWonBy(snap.Matches, sprintsPlayerID))
	}
	return nil
}
