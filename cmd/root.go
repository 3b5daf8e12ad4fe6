package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/refresh"
	"github.com/pable/go-wp-metrics/internal/storage"
)

var (
	dbPath   string
	logLevel string
	clubID   string
	season   string

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "wpmetrics",
	Short: "Water-polo match statistics tool",
	Long:  "Store per-player water-polo match statistics and compute derived series, mixes and composite scores.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger.SetLevel(lvl)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	defaultDB := envOr("WPMETRICS_DB", filepath.Join(mustUserHome(), ".wpmetrics", "metrics.db"))
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database (env WPMETRICS_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("WPMETRICS_LOG_LEVEL", "warn"), "log level: debug, info, warn, error (env WPMETRICS_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&clubID, "club", os.Getenv("WPMETRICS_CLUB"), "club id (env WPMETRICS_CLUB, empty = all)")
	rootCmd.PersistentFlags().StringVar(&season, "season", os.Getenv("WPMETRICS_SEASON"), "season, e.g. 2024-25 (env WPMETRICS_SEASON, empty = all)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(mixCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(sprintsCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openDB opens the database, creating its directory when needed.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// loadSnapshot reads the selected club and season from the local store.
func loadSnapshot(ctx context.Context, db *storage.DB) (*refresh.Snapshot, error) {
	snap, err := refresh.NewLoader(db, logger.WithField("component", "refresh")).Load(ctx, clubID, season)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}
