package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/storage"
)

var (
	dropForce bool
	dropMatch string
)

// dropCmd deletes the metrics database file, or a single match.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the metrics database or one match",
	Long: `Permanently delete the SQLite metrics database. All stored match data will be lost.
Re-import your snapshots afterwards to rebuild.

With --match, only the match with that id prefix and its stat rows are removed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropMatch, "match", "", "delete only the match with this id prefix")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropMatch != "" {
		return dropOneMatch()
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		os.Remove(dbPath + suffix)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropOneMatch() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(dropMatch)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No match found with id prefix %q\n", dropMatch)
		return nil
	}
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete match %s (%s vs %s).\n", m.ID, m.RoundLabel(), m.Opponent)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if _, err := db.DeleteMatch(m.ID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted match %s\n", m.ID)
	return nil
}
