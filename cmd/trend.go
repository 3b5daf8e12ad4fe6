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
	trendPlayerID   string
	trendBucket     string
	trendBalance    string
	trendEfficiency bool
	trendGoalDiff   bool
	trendLast       int
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Chronological per-match series with running totals and means",
	Long: `Print a per-match series for the selected club and season, in round order.

By default the series is one summary bucket (--bucket, default goals). Use
--balance plus:minus for a difference series such as blocks:conceded, or
--efficiency for shooting efficiency, or --goal-diff for the match goal
difference. --player restricts the rows to one player.

Buckets: ` + strings.Join(model.SummaryGroups.Names(), ", "),
	Args: cobra.NoArgs,
	RunE: runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendPlayerID, "player", "", "restrict to one player id")
	trendCmd.Flags().StringVar(&trendBucket, "bucket", model.BucketGoals, "summary bucket to trend")
	trendCmd.Flags().StringVar(&trendBalance, "balance", "", "difference series plus:minus, e.g. blocks:conceded")
	trendCmd.Flags().BoolVar(&trendEfficiency, "efficiency", false, "trend shooting efficiency instead")
	trendCmd.Flags().BoolVar(&trendGoalDiff, "goal-diff", false, "trend goals for minus against per match")
	trendCmd.Flags().IntVar(&trendLast, "last", 0, "only the N most recent matches")
}

func checkBucket(name string) error {
	if _, ok := model.SummaryGroups.Find(name); !ok {
		return fmt.Errorf("unknown bucket %q, want one of %s", name, strings.Join(model.SummaryGroups.Names(), ", "))
	}
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}
	seq := snap.Matches.Last(trendLast)
	if seq.Len() == 0 {
		fmt.Println("no matches found")
		return nil
	}
	filter := aggregator.ForPlayer(trendPlayerID)

	var pts []model.SeriesPoint
	label := strings.ToUpper(trendBucket)
	switch {
	case trendGoalDiff:
		pts = aggregator.GoalDifferenceSeries(seq)
		label = "DIFF"
	case trendEfficiency:
		pts = aggregator.EfficiencySeries(seq, snap.Stats, filter)
		label = "EFF%"
	case trendBalance != "":
		plus, minus, ok := strings.Cut(trendBalance, ":")
		if !ok {
			return fmt.Errorf("--balance wants plus:minus, got %q", trendBalance)
		}
		for _, b := range []string{plus, minus} {
			if err := checkBucket(b); err != nil {
				return err
			}
		}
		pts = aggregator.BalanceSeries(seq, snap.Stats, model.SummaryGroups, plus, minus, filter)
		label = strings.ToUpper(plus + "-" + minus)
	default:
		if err := checkBucket(trendBucket); err != nil {
			return err
		}
		pts = aggregator.GroupSeries(seq, snap.Stats, model.SummaryGroups, trendBucket, filter)
	}

	report.PrintSeriesTable(os.Stdout, seq, pts, label)
	return nil
}
