package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches in chronological order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
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
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'wpmetrics import <snapshot.json>' or 'wpmetrics sync' to add some.")
		return nil
	}
	report.PrintMatchTable(os.Stdout, snap.Matches)
	return nil
}
