package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
)

var (
	roundsResult string
	roundsVenue  string
	roundsLast   int
)

// roundsCmd is the cobra command for the per-jornada drill-down of one player.
var roundsCmd = &cobra.Command{
	Use:   "rounds <player-id>",
	Short: "Per-jornada drill-down for one player",
	Args:  cobra.ExactArgs(1),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().StringVar(&roundsResult, "result", "", "filter by result: W, D or L")
	roundsCmd.Flags().StringVar(&roundsVenue, "venue", "", "filter by venue: home or away")
	roundsCmd.Flags().IntVar(&roundsLast, "last", 0, "only show the N most recent matches")
}

// filterRounds applies --result and --venue, keeping sequence order.
func filterRounds(seq aggregator.Sequence, result, venue string) (aggregator.Sequence, error) {
	result = strings.ToUpper(result)
	venue = strings.ToLower(venue)
	switch venue {
	case "", "home", "away":
	default:
		return seq, fmt.Errorf("invalid --venue %q, want home or away", venue)
	}
	switch aggregator.Result(result) {
	case "", aggregator.ResultWin, aggregator.ResultDraw, aggregator.ResultLoss:
	default:
		return seq, fmt.Errorf("invalid --result %q, want W, D or L", result)
	}

	var out []model.MatchRecord
	for _, m := range seq.Matches() {
		if result != "" && string(aggregator.MatchResult(m)) != result {
			continue
		}
		if venue == "home" && !m.IsHome || venue == "away" && m.IsHome {
			continue
		}
		out = append(out, m)
	}
	return aggregator.SortMatches(out), nil
}

// runRounds loads the selected season and prints one line per jornada the player took part in.
func runRounds(cmd *cobra.Command, args []string) error {
	playerID := args[0]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}

	playerName := ""
	for _, s := range snap.Stats {
		if s.PlayerID == playerID {
			playerName = s.PlayerName
			break
		}
	}
	if playerName == "" {
		fmt.Fprintf(os.Stderr, "No data found for player %s\n", playerID)
		return nil
	}

	seq, err := filterRounds(snap.Matches, roundsResult, roundsVenue)
	if err != nil {
		return err
	}
	if roundsLast > 0 {
		seq = seq.Last(roundsLast)
	}
	if seq.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No matches match the given filters.")
		return nil
	}

	report.PrintRoundDetailTable(os.Stdout, seq, snap.Stats, playerID, playerName)
	return nil
}
