package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <snapshot.json[.gz|.zst]>...",
	Short: "Import exported match snapshots into the local database",
	Long: `Import one or more snapshot files of the form
  {"matches": [...], "player_stats": [...], "weights": [...]}
Rows are upserted, so re-importing a file is safe. Rows without an id get a
generated one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, path := range args {
		snap, err := importer.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		res, err := importer.Import(cmd.Context(), db, snap, logger.WithField("file", path))
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "%s: %d matches, %d stat rows, %d weights (%d skipped)\n",
			path, res.Matches, res.Stats, res.Weights, res.Skipped)
	}
	return nil
}
