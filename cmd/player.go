package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
)

// playerCmd is the cobra command for cross-match analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <player-id> [<player-id>...]",
	Short: "Cross-match analysis for one or more players",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

// runPlayer prints each player's season totals, then per player the
// efficiency trend, goal or save mix, and sprints won.
func runPlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(args))
	for _, id := range args {
		wanted[id] = true
	}
	var rows []model.PlayerStatRecord
	for _, s := range snap.Stats {
		if wanted[s.PlayerID] {
			rows = append(rows, s)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "No data found for the given players")
		return nil
	}

	fmt.Fprintln(os.Stdout)
	report.PrintPlayerTableTo(os.Stdout, rows, "")

	for _, id := range args {
		filter := aggregator.ForPlayer(id)
		var name string
		role := model.RoleField
		for _, r := range rows {
			if r.PlayerID == id {
				name, role = r.PlayerName, r.Role
				break
			}
		}
		if name == "" {
			fmt.Fprintf(os.Stderr, "No data found for player %s\n", id)
			continue
		}

		fmt.Fprintf(os.Stdout, "\n=== %s (%s) ===\n\n", name, role)
		if role == model.RoleGoalkeeper {
			pts := aggregator.GroupSeries(snap.Matches, rows, model.SummaryGroups, model.BucketSaves, filter)
			report.PrintSeriesTable(os.Stdout, snap.Matches, pts, "SAVES")
			fmt.Fprintln(os.Stdout)
			report.PrintMixTable(os.Stdout, aggregator.PlayerMix(rows, model.SaveTypes, filter))
		} else {
			pts := aggregator.EfficiencySeries(snap.Matches, rows, filter)
			report.PrintSeriesTable(os.Stdout, snap.Matches, pts, "EFF%")
			fmt.Fprintln(os.Stdout)
			report.PrintMixTable(os.Stdout, aggregator.PlayerMix(rows, model.GoalTypes, filter))
		}
		if n := aggregator.SprintsWonBy(snap.Matches, id); n > 0 {
			fmt.Fprintf(os.Stdout, "\nOpening sprints won: %d\n", n)
		}
	}
	return nil
}
