package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/refresh"
	"github.com/pable/go-wp-metrics/internal/report"
	"github.com/pable/go-wp-metrics/internal/staging"
	"github.com/pable/go-wp-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession is the state carried between REPL commands.
type shellSession struct {
	ctx    context.Context
	db     *storage.DB
	loader *refresh.Loader
	club   string
	season string
	stager *staging.Stager
	role   model.Role
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	s := &shellSession{
		ctx:    cmd.Context(),
		db:     db,
		loader: refresh.NewLoader(db, logger.WithField("component", "refresh")),
		club:   clubID,
		season: season,
	}
	s.reload()

	cGreeting.Println("wpmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("wpmetrics")
		if s.club != "" || s.season != "" {
			cMuted.Printf(" [%s %s]", s.club, s.season)
		}
		if s.stager != nil && s.stager.IsDirty() {
			cWarn.Print("*")
		}
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			if s.stager != nil && s.stager.IsDirty() {
				cWarn.Fprintln(os.Stderr, "unsaved weight edits discarded")
			}
			return nil
		case "help":
			shellHelp()
		case "club":
			s.club = firstArg(args)
			s.reload()
		case "season":
			s.season = firstArg(args)
			s.reload()
		case "reload":
			s.reload()
		case "list":
			s.list()
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <id-prefix> [--player <id>]")
				continue
			}
			s.show(args[0], flagValue(args, "--player"))
		case "trend":
			s.trend(firstArg(args), flagValue(args, "--player"))
		case "mix":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: mix <group> [--player <id>]")
				continue
			}
			s.mix(args[0], flagValue(args, "--player"))
		case "sprints":
			s.sprints()
		case "score":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: score <user>")
				continue
			}
			s.score(args[0])
		case "stage":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: stage <user> <field|goalkeeper>")
				continue
			}
			s.stage(args[0], args[1])
		case "set", "toggle", "remove", "diff", "commit", "discard":
			s.edit(name, args)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 || strings.HasPrefix(args[0], "--") {
		return ""
	}
	return args[0]
}

func flagValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"club <id> / season <s>", "select the club and season (empty = all)"},
		{"reload", "reload the current selection"},
		{"list", "list matches in round order"},
		{"show <id-prefix> [--player <id>]", "show a match's stats"},
		{"trend [bucket] [--player <id>]", "per-match series with running mean"},
		{"mix <group> [--player <id>]", "category breakdown"},
		{"sprints", "opening sprints and goals per quarter"},
		{"score <user>", "composite scoreboard"},
		{"stage <user> <role>", "start editing a weight map"},
		{"set <key> <w> / toggle <key> / remove <key>", "edit the staged weight map"},
		{"diff / commit / discard", "review, save or drop staged edits"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-44s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) reload() {
	snap, err := s.loader.Load(s.ctx, s.club, s.season)
	if errors.Is(err, refresh.ErrStale) {
		return
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v (keeping previous data)\n", err)
		return
	}
	cMuted.Printf("loaded %d matches, %d stat rows\n", snap.Matches.Len(), len(snap.Stats))
}

// current returns the loaded snapshot, or nil after printing a hint.
func (s *shellSession) current() *refresh.Snapshot {
	snap := s.loader.Current()
	if snap == nil || snap.Matches.Len() == 0 {
		cMuted.Println("No matches for this selection.")
		return nil
	}
	return snap
}

func (s *shellSession) list() {
	if snap := s.current(); snap != nil {
		report.PrintMatchTable(os.Stdout, snap.Matches)
	}
}

func (s *shellSession) show(prefix, playerID string) {
	m, err := s.db.GetMatchByPrefix(prefix)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "no match found with prefix %q\n", prefix)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	stats, err := s.db.GetPlayerStatsByMatch(m.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintMatchSummary(os.Stdout, *m)
	report.PrintPlayerTable(stats, playerID)
}

func (s *shellSession) trend(bucket, playerID string) {
	if bucket == "" {
		bucket = model.BucketGoals
	}
	if err := checkBucket(bucket); err != nil {
		cError.Fprintln(os.Stderr, err)
		return
	}
	snap := s.current()
	if snap == nil {
		return
	}
	pts := aggregator.GroupSeries(snap.Matches, snap.Stats, model.SummaryGroups, bucket, aggregator.ForPlayer(playerID))
	report.PrintSeriesTable(os.Stdout, snap.Matches, pts, strings.ToUpper(bucket))
}

func (s *shellSession) mix(group, playerID string) {
	groups, ok := model.NamedGroups[group]
	if !ok {
		cError.Fprintf(os.Stderr, "unknown group %q, want one of %s\n", group, strings.Join(groupNames(), ", "))
		return
	}
	snap := s.current()
	if snap == nil {
		return
	}
	report.PrintMixTable(os.Stdout, aggregator.PlayerMix(snap.Stats, groups, aggregator.ForPlayer(playerID)))
}

func (s *shellSession) sprints() {
	snap := s.current()
	if snap == nil {
		return
	}
	fmt.Fprintln(color.Output, cHeader.Sprint("\nOpening sprints and goals per quarter\n"))
	report.PrintSprintTable(os.Stdout, aggregator.SprintSummary(snap.Matches), aggregator.QuarterSplit(snap.Matches))
}

func (s *shellSession) score(user string) {
	snap := s.current()
	if snap == nil {
		return
	}
	field, err := s.db.FetchWeightMap(s.ctx, user, model.RoleField)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	gk, err := s.db.FetchWeightMap(s.ctx, user, model.RoleGoalkeeper)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cHeader.Printf("\nComposite scores for %s\n\n", user)
	report.PrintScoreboard(os.Stdout, aggregator.Scoreboard(snap.Stats, field, gk), 20)
}

func (s *shellSession) stage(user, roleName string) {
	if s.stager != nil && s.stager.IsDirty() {
		cWarn.Fprintln(os.Stderr, "commit or discard the current edits first")
		return
	}
	role, err := model.ParseRole(roleName)
	if err != nil {
		cError.Fprintln(os.Stderr, err)
		return
	}
	st, err := staging.New(s.ctx, s.db, user, role, logger.WithField("component", "staging"))
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.stager, s.role = st, role
	weightsUserID = user
	printWeights(role, st)
}

func (s *shellSession) edit(op string, args []string) {
	if s.stager == nil {
		cError.Fprintln(os.Stderr, "no weight map staged, use 'stage <user> <role>'")
		return
	}
	st := s.stager
	switch op {
	case "set":
		if len(args) != 2 {
			cError.Fprintln(os.Stderr, "usage: set <key> <weight>")
			return
		}
		w, err := parseWeight(args[1])
		if err != nil {
			cError.Fprintln(os.Stderr, err)
			return
		}
		st.Set(args[0], w)
	case "toggle":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: toggle <key> [weight]")
			return
		}
		w := 1.0
		if len(args) > 1 {
			var err error
			if w, err = parseWeight(args[1]); err != nil {
				cError.Fprintln(os.Stderr, err)
				return
			}
		}
		st.Toggle(args[0], w)
	case "remove":
		for _, k := range args {
			st.Remove(k)
		}
	case "discard":
		st.Discard()
		cMuted.Println("draft reverted")
		return
	case "commit":
		if err := st.Commit(s.ctx); err != nil {
			cError.Fprintf(os.Stderr, "save failed, draft kept: %v\n", err)
			return
		}
		cMuted.Println("saved")
		return
	}
	state, _ := st.State()
	cMuted.Printf("state: %s\n", state)
	if op == "diff" {
		printWeights(s.role, st)
	}
}
