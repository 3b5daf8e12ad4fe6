package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/report"
	"github.com/pable/go-wp-metrics/internal/staging"
)

var (
	weightsUserID string
	weightsRole   string
	weightsDryRun bool
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show and edit composite score weight maps",
	Long: `Weight maps are scoped to a user and a role (field or goalkeeper). Edits are
staged against the saved map and committed as per-key changes; keys that
were added or removed are toggled, keys whose weight changed are updated.`,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved weight map",
	Args:  cobra.NoArgs,
	RunE:  runWeightsShow,
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <key> <weight> [<key> <weight>...]",
	Short: "Set one or more weights",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return errors.New("want key/weight pairs")
		}
		return nil
	},
	RunE: runWeightsEdit(func(st *staging.Stager, args []string) error {
		for i := 0; i < len(args); i += 2 {
			w, err := parseWeight(args[i+1])
			if err != nil {
				return err
			}
			st.Set(args[i], w)
		}
		return nil
	}),
}

var weightsToggleCmd = &cobra.Command{
	Use:   "toggle <key> [weight]",
	Short: "Remove a key if present, otherwise add it (default weight 1)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: runWeightsEdit(func(st *staging.Stager, args []string) error {
		w := 1.0
		if len(args) == 2 {
			var err error
			if w, err = parseWeight(args[1]); err != nil {
				return err
			}
		}
		st.Toggle(args[0], w)
		return nil
	}),
}

var weightsRemoveCmd = &cobra.Command{
	Use:   "remove <key>...",
	Short: "Remove keys from the weight map",
	Args:  cobra.MinimumNArgs(1),
	RunE: runWeightsEdit(func(st *staging.Stager, args []string) error {
		for _, k := range args {
			st.Remove(k)
		}
		return nil
	}),
}

var weightsCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the stat keys a weight map for --role may use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := model.ParseRole(weightsRole)
		if err != nil {
			return err
		}
		for _, k := range model.Catalog(role) {
			fmt.Fprintln(os.Stdout, k)
		}
		return nil
	},
}

func init() {
	weightsCmd.PersistentFlags().StringVar(&weightsUserID, "user", os.Getenv("WPMETRICS_USER"), "weight map owner (env WPMETRICS_USER)")
	weightsCmd.PersistentFlags().StringVar(&weightsRole, "role", "field", "field or goalkeeper")
	weightsCmd.PersistentFlags().BoolVar(&weightsDryRun, "dry-run", false, "print the staged changes without saving")

	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsCatalogCmd)
	weightsCmd.AddCommand(weightsSetCmd)
	weightsCmd.AddCommand(weightsToggleCmd)
	weightsCmd.AddCommand(weightsRemoveCmd)
}

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	return w, nil
}

func openStager(cmd *cobra.Command) (*staging.Stager, func(), error) {
	if weightsUserID == "" {
		return nil, nil, errors.New("--user is required")
	}
	role, err := model.ParseRole(weightsRole)
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	st, err := staging.New(cmd.Context(), db, weightsUserID, role, logger.WithField("component", "staging"))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return st, func() { db.Close() }, nil
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	st, done, err := openStager(cmd)
	if err != nil {
		return err
	}
	defer done()
	role, _ := model.ParseRole(weightsRole)
	if len(st.Saved()) == 0 {
		fmt.Fprintf(os.Stdout, "No %s weights saved for %s.\n", role, weightsUserID)
		return nil
	}
	printWeights(role, st)
	return nil
}

func runWeightsEdit(edit func(*staging.Stager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, done, err := openStager(cmd)
		if err != nil {
			return err
		}
		defer done()
		role, _ := model.ParseRole(weightsRole)

		if err := edit(st, args); err != nil {
			return err
		}
		for k := range st.Draft() {
			if !model.InCatalog(role, k) {
				logger.WithField("key", k).Warnf("key is not in the %s catalog and will not contribute to scores", role)
			}
		}
		printWeights(role, st)

		if !st.IsDirty() {
			fmt.Fprintln(os.Stdout, "No changes.")
			return nil
		}
		if weightsDryRun {
			fmt.Fprintln(os.Stdout, "Dry run: nothing saved.")
			return nil
		}
		if err := st.Commit(cmd.Context()); err != nil {
			return fmt.Errorf("save weights (draft kept): %w", err)
		}
		fmt.Fprintln(os.Stdout, "Saved.")
		return nil
	}
}

func printWeights(role model.Role, st *staging.Stager) {
	fmt.Fprintf(os.Stdout, "\n%s weights for %s:\n\n", role, weightsUserID)
	report.PrintWeightTable(os.Stdout, role, st.Saved(), st.Draft())
}
