package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about the stored matches:
total match count, date range, results for the selected club and season,
and the most active players.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'wpmetrics import <snapshot.json>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Matches stored : %d\n", ov.Matches)
	fmt.Fprintf(os.Stdout, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(os.Stdout, "  Seasons        : %d\n", ov.Seasons)
	fmt.Fprintf(os.Stdout, "  Players seen   : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Stat rows      : %d\n", ov.StatRows)

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}
	var w, d, l, gf, ga int
	for _, m := range snap.Matches.Matches() {
		switch aggregator.MatchResult(m) {
		case aggregator.ResultWin:
			w++
		case aggregator.ResultDraw:
			d++
		default:
			l++
		}
		gf += m.GoalsFor()
		ga += m.GoalsAgainst()
	}
	fmt.Fprintf(os.Stdout, "\n--- Results ---\n\n")
	rt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	rt.Header("MATCHES", "W", "D", "L", "WIN%", "GF", "GA", "GF/MATCH", "GA/MATCH")
	n := float64(snap.Matches.Len())
	rt.Append(
		fmt.Sprintf("%d", snap.Matches.Len()),
		fmt.Sprintf("%d", w),
		fmt.Sprintf("%d", d),
		fmt.Sprintf("%d", l),
		fmt.Sprintf("%.1f%%", aggregator.Pct(float64(w), n, aggregator.PctDecimals)),
		fmt.Sprintf("%d", gf),
		fmt.Sprintf("%d", ga),
		fmt.Sprintf("%.2f", aggregator.Ratio(float64(gf), n)),
		fmt.Sprintf("%.2f", aggregator.Ratio(float64(ga), n)),
	)
	rt.Render()

	// Most active players.
	players, err := db.ListPlayers(clubID, season)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) > 10 {
		players = players[:10]
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	pt := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	pt.Header("NAME", "PLAYER ID", "ROLE", "MATCHES")
	for _, p := range players {
		pt.Append(p.Name, p.PlayerID, p.Role.String(), fmt.Sprintf("%d", p.Matches))
	}
	pt.Render()
	return nil
}
