package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
)

var mixPlayerID string

var mixCmd = &cobra.Command{
	Use:   "mix <group>",
	Short: "Percentage breakdown of a stat category",
	Long: `Print the category mix of a stat group over the selected club and season,
optionally for one player. The most frequent category is marked "*"; ties go
to the category listed first.

Groups: ` + strings.Join(groupNames(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: runMix,
}

func init() {
	mixCmd.Flags().StringVar(&mixPlayerID, "player", "", "restrict to one player id")
}

func groupNames() []string {
	names := make([]string, 0, len(model.NamedGroups))
	for n := range model.NamedGroups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func runMix(cmd *cobra.Command, args []string) error {
	groups, ok := model.NamedGroups[args[0]]
	if !ok {
		return fmt.Errorf("unknown group %q, want one of %s", args[0], strings.Join(groupNames(), ", "))
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}
	mix := aggregator.PlayerMix(snap.Stats, groups, aggregator.ForPlayer(mixPlayerID))
	if mix.Total == 0 {
		fmt.Println("no events recorded for this group")
		return nil
	}
	report.PrintMixTable(os.Stdout, mix)
	return nil
}
