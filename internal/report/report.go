package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func dateStr(m model.MatchRecord) string {
	if m.Date.IsZero() {
		return "—"
	}
	return m.Date.Format("2006-01-02")
}

func venue(m model.MatchRecord) string {
	if m.IsHome {
		return "H"
	}
	return "A"
}

// num formats a counter total without a trailing ".0" for whole values.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, m model.MatchRecord) {
	fmt.Fprintf(w, "\nRound: %s  |  Date: %s  |  vs %s (%s)  |  Score: %d – %d  |  Result: %s  |  ID: %s\n\n",
		m.RoundLabel(), dateStr(m), m.Opponent, venue(m), m.GoalsFor(), m.GoalsAgainst(),
		aggregator.MatchResult(m), shortID(m.ID))
}

// PrintMatchTable lists matches in chronological order.
func PrintMatchTable(w io.Writer, seq aggregator.Sequence) {
	table := newTable(w)
	table.Header("#", "ROUND", "DATE", "OPPONENT", "H/A", "FOR", "AGAINST", "RES", "ID")
	for i, m := range seq.Matches() {
		table.Append(
			strconv.Itoa(i+1),
			m.RoundLabel(),
			dateStr(m),
			m.Opponent,
			venue(m),
			strconv.Itoa(m.GoalsFor()),
			strconv.Itoa(m.GoalsAgainst()),
			string(aggregator.MatchResult(m)),
			shortID(m.ID),
		)
	}
	table.Render()
}

// PrintPlayerTable prints the per-player summary of a set of stat rows, one
// line per player. If focusPlayerID is set, that player's row is marked with ">".
func PrintPlayerTable(stats []model.PlayerStatRecord, focusPlayerID string) {
	PrintPlayerTableTo(os.Stdout, stats, focusPlayerID)
}

// PrintPlayerTableTo writes the player table to the provided writer.
func PrintPlayerTableTo(w io.Writer, stats []model.PlayerStatRecord, focusPlayerID string) {
	type player struct {
		id, name string
		role     model.Role
	}
	var order []player
	seen := make(map[string]bool)
	for _, s := range stats {
		if !seen[s.PlayerID] {
			seen[s.PlayerID] = true
			order = append(order, player{s.PlayerID, s.PlayerName, s.Role})
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].role != order[j].role {
			return order[i].role < order[j].role
		}
		return order[i].name < order[j].name
	})

	table := newTable(w)
	table.Header(" ", "NAME", "ROLE", "GOALS", "MISSES", "EFF%", "FOULS", "BLOCKS", "TURNOVERS", "SAVES", "CONCEDED", "SAVE%")
	for _, p := range order {
		t := aggregator.AggregateRows(stats, model.SummaryGroups, aggregator.ForPlayer(p.id))
		marker := " "
		if focusPlayerID != "" && p.id == focusPlayerID {
			marker = ">"
		}
		eff, save := "—", "—"
		if t.Sum(model.BucketGoals, model.BucketMisses) > 0 {
			eff = pct(aggregator.Efficiency(t))
		}
		if t.Sum(model.BucketSaves, model.BucketConceded) > 0 {
			save = pct(aggregator.SaveRate(t))
		}
		table.Append(
			marker,
			p.name,
			p.role.String(),
			num(t.Get(model.BucketGoals)),
			num(t.Get(model.BucketMisses)),
			eff,
			num(t.Get(model.BucketFouls)),
			num(t.Get(model.BucketBlocks)),
			num(t.Get(model.BucketTurnovers)),
			num(t.Get(model.BucketSaves)),
			num(t.Get(model.BucketConceded)),
			save,
		)
	}
	table.Render()
}

// PrintSeriesTable prints a derived series alongside its matches. The SCORE
// column appears only when the series carries composite scores.
func PrintSeriesTable(w io.Writer, seq aggregator.Sequence, pts []model.SeriesPoint, label string) {
	withScore := false
	for _, p := range pts {
		if p.Score != nil {
			withScore = true
			break
		}
	}

	table := newTable(w)
	header := []any{"#", "ROUND", "OPPONENT", label, "TOTAL", "MEAN"}
	if withScore {
		header = append(header, "SCORE")
	}
	table.Header(header...)
	for _, p := range pts {
		round, opp := "—", ""
		if p.Index < seq.Len() {
			m := seq.At(p.Index)
			round, opp = m.RoundLabel(), m.Opponent
		}
		row := []any{
			strconv.Itoa(p.Index + 1),
			round,
			opp,
			num(aggregator.RoundTo(p.Value, 2)),
			num(aggregator.RoundTo(p.CumulativeTotal, 2)),
			fmt.Sprintf("%.2f", p.CumulativeMean),
		}
		if withScore {
			s := "—"
			if p.Score != nil {
				s = strconv.Itoa(*p.Score)
			}
			row = append(row, s)
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintMixTable prints a category mix; the most frequent bucket is marked "*".
func PrintMixTable(w io.Writer, mix model.CategoryMix) {
	table := newTable(w)
	table.Header(" ", "CATEGORY", "N", "%")
	for i, b := range mix.Buckets {
		marker := " "
		if i == mix.TopIndex {
			marker = "*"
		}
		table.Append(marker, b.Name, num(b.Value), pct(b.Pct))
	}
	table.Footer("", "TOTAL", num(mix.Total), "")
	table.Render()
}

// PrintScoreboard prints composite scores, best first. limit <= 0 prints all.
func PrintScoreboard(w io.Writer, scores []model.PlayerScore, limit int) {
	table := newTable(w)
	table.Header("#", "PLAYER", "ROLE", "MATCH", "SCORE")
	for i, s := range scores {
		if limit > 0 && i >= limit {
			break
		}
		table.Append(
			strconv.Itoa(i+1),
			s.PlayerName,
			s.Role.String(),
			shortID(s.MatchID),
			strconv.Itoa(s.Score),
		)
	}
	table.Render()
}

// PrintSprintTable prints opening sprints and goals per quarter.
func PrintSprintTable(w io.Writer, sprints []model.SprintQuarter, quarters []model.QuarterTotals) {
	byQuarter := make(map[int]model.QuarterTotals, len(quarters))
	for _, q := range quarters {
		byQuarter[q.Quarter] = q
	}

	table := newTable(w)
	table.Header("QUARTER", "SPRINTS", "WON", "WIN%", "GF", "GA", "DIFF")
	for _, s := range sprints {
		q := byQuarter[s.Quarter]
		win := "—"
		if s.Played > 0 {
			win = pct(s.WinPct)
		}
		table.Append(
			fmt.Sprintf("Q%d", s.Quarter),
			strconv.Itoa(s.Played),
			strconv.Itoa(s.Won),
			win,
			strconv.Itoa(q.For),
			strconv.Itoa(q.Against),
			fmt.Sprintf("%+d", q.For-q.Against),
		)
	}
	table.Render()
}

// PrintWeightTable prints saved and draft weights side by side. Keys whose
// value differs between the two are marked "~", added keys "+", removed "-".
func PrintWeightTable(w io.Writer, role model.Role, saved, draft model.WeightMap) {
	keys := make(map[string]struct{}, len(saved)+len(draft))
	for k := range saved {
		keys[k] = struct{}{}
	}
	for k := range draft {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	table := newTable(w)
	table.Header(" ", "KEY", "SAVED", "DRAFT", "CATALOG")
	for _, k := range sorted {
		sv, inSaved := saved[k]
		dv, inDraft := draft[k]
		marker := " "
		switch {
		case inSaved && !inDraft:
			marker = "-"
		case !inSaved && inDraft:
			marker = "+"
		case fmt.Sprint(sv) != fmt.Sprint(dv):
			marker = "~"
		}
		catalog := "no"
		if model.InCatalog(role, k) {
			catalog = "yes"
		}
		table.Append(marker, k, weightStr(sv, inSaved), weightStr(dv, inDraft), catalog)
	}
	table.Render()
}

func weightStr(v any, ok bool) string {
	if !ok {
		return "—"
	}
	if f, valid := model.Float(v); valid {
		return num(f)
	}
	return fmt.Sprintf("%v (ignored)", v)
}

// PrintRoundDetailTable prints one line per jornada for a single player:
// the summary buckets plus shooting efficiency and save rate for that match.
// Matches the player has no rows for are skipped.
func PrintRoundDetailTable(w io.Writer, seq aggregator.Sequence, rows []model.PlayerStatRecord, playerID, playerName string) {
	played := make(map[string]bool)
	for _, r := range rows {
		if _, ok := seq.Position(r.MatchID); ok && r.PlayerID == playerID {
			played[r.MatchID] = true
		}
	}
	fmt.Fprintf(w, "\n%s: %d matches\n\n", playerName, len(played))

	table := newTable(w)
	table.Header("ROUND", "DATE", "OPPONENT", "RES", "GOALS", "MISSES", "EFF%", "FOULS", "BLOCKS", "SAVES", "SAVE%")
	for _, mt := range aggregator.MatchTotalsFor(seq, rows, model.SummaryGroups, aggregator.ForPlayer(playerID)) {
		if !played[mt.Match.ID] {
			continue
		}
		m, t := mt.Match, mt.Totals
		eff, save := "—", "—"
		if t.Sum(model.BucketGoals, model.BucketMisses) > 0 {
			eff = pct(aggregator.Efficiency(t))
		}
		if t.Sum(model.BucketSaves, model.BucketConceded) > 0 {
			save = pct(aggregator.SaveRate(t))
		}
		table.Append(
			m.RoundLabel(),
			dateStr(m),
			m.Opponent,
			string(aggregator.MatchResult(m)),
			num(t.Get(model.BucketGoals)),
			num(t.Get(model.BucketMisses)),
			eff,
			num(t.Get(model.BucketFouls)),
			num(t.Get(model.BucketBlocks)),
			num(t.Get(model.BucketSaves)),
			save,
		)
	}
	table.Render()
}
