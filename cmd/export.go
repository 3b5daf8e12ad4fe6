package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/importer"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/remote"
)

var (
	exportOut     string
	exportWeights bool
	exportRemote  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a club's season as a snapshot file",
	Long: `Write the matches and player stats selected by --club/--season as a snapshot
document that 'import' reads back. The output is compressed by extension:
.json.zst (zstd), .json.gz (gzip) or plain JSON. Without --out the document
goes to stdout.

With --remote the snapshot is taken from the hosted store instead of the
local database; weight maps are only exported from the local database.

Example:
  wpmetrics export --club c1 --season 2024-25 --weights --out c1-2024-25.json.zst`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportWeights, "weights", false, "include every saved weight map")
	exportCmd.Flags().BoolVar(&exportRemote, "remote", false, "read from the hosted store")
	exportCmd.Flags().StringVar(&remoteURL, "url", os.Getenv("WPMETRICS_REMOTE_URL"), "hosted store base URL (with --remote)")
	exportCmd.Flags().StringVar(&remoteKey, "api-key", os.Getenv("WPMETRICS_REMOTE_KEY"), "hosted store API key (with --remote)")
}

// remoteExportSource adapts the hosted store to importer.Store.
type remoteExportSource struct {
	*remote.Client
}

func (remoteExportSource) ListWeightRows(_ context.Context) ([]model.Row, error) {
	return nil, errors.New("weight export is only supported from the local database")
}

func runExport(cmd *cobra.Command, args []string) error {
	var src importer.Store
	if exportRemote {
		if remoteURL == "" {
			return errors.New("--remote needs --url or $WPMETRICS_REMOTE_URL")
		}
		src = remoteExportSource{remote.NewClient(remoteURL, remoteKey, logger.WithField("component", "remote"))}
	} else {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		src = db
	}

	snap, err := importer.Collect(cmd.Context(), src, clubID, season, exportWeights)
	if err != nil {
		return err
	}

	if exportOut == "" {
		return importer.Encode(os.Stdout, snap)
	}
	if err := importer.WriteFile(exportOut, snap); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	logger.WithFields(logrus.Fields{
		"matches": len(snap.Matches),
		"stats":   len(snap.PlayerStats),
		"weights": len(snap.Weights),
		"out":     exportOut,
	}).Info("export complete")
	return nil
}
