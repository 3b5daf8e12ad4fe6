package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/refresh"
	"github.com/pable/go-wp-metrics/internal/remote"
	"github.com/pable/go-wp-metrics/internal/staging"
)

var (
	remoteURL   string
	remoteKey   string
	syncUserIDs []string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy a club's season from the hosted store into the local database",
	Long: `Fetch matches and player stats for --club/--season from the hosted store
and upsert them locally. With --user, that user's field and goalkeeper weight
maps are copied too.

The store URL and API key default to $WPMETRICS_REMOTE_URL and $WPMETRICS_REMOTE_KEY.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&remoteURL, "url", os.Getenv("WPMETRICS_REMOTE_URL"), "hosted store base URL")
	syncCmd.Flags().StringVar(&remoteKey, "api-key", os.Getenv("WPMETRICS_REMOTE_KEY"), "hosted store API key")
	syncCmd.Flags().StringSliceVar(&syncUserIDs, "user", nil, "also copy weight maps for these user ids")
}

func runSync(cmd *cobra.Command, args []string) error {
	if remoteURL == "" {
		return errors.New("no store URL: pass --url or set WPMETRICS_REMOTE_URL")
	}
	if clubID == "" {
		return errors.New("--club is required")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	client := remote.NewClient(remoteURL, remoteKey, logger.WithField("component", "remote"))
	snap, err := refresh.NewLoader(client, logger.WithField("component", "refresh")).Load(ctx, clubID, season)
	if err != nil {
		return fmt.Errorf("fetch remote: %w", err)
	}

	if err := db.InsertMatches(snap.Matches.Matches()); err != nil {
		return fmt.Errorf("store matches: %w", err)
	}
	if err := db.InsertPlayerStats(snap.Stats); err != nil {
		return fmt.Errorf("store player stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Synced %d matches and %d stat rows for club %s.\n",
		snap.Matches.Len(), len(snap.Stats), clubID)

	for _, user := range syncUserIDs {
		for _, role := range []model.Role{model.RoleField, model.RoleGoalkeeper} {
			w, err := client.FetchWeightMap(ctx, user, role)
			if err != nil {
				return fmt.Errorf("fetch weights for %s: %w", user, err)
			}
			st, err := staging.New(ctx, db, user, role, logger.WithField("component", "staging"))
			if err != nil {
				return err
			}
			for k := range st.Draft() {
				if _, ok := w[k]; !ok {
					st.Remove(k)
				}
			}
			for k, v := range w {
				st.Set(k, v)
			}
			if err := st.Commit(ctx); err != nil {
				return fmt.Errorf("store weights for %s: %w", user, err)
			}
			fmt.Fprintf(os.Stdout, "Synced %d %s weights for %s.\n", len(w), role, user)
		}
	}
	return nil
}
