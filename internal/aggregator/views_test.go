package aggregator

import (
	"testing"

	"github.com/pable/go-wp-metrics/internal/model"
)

func intp(n int) *int { return &n }

func TestSprintSummary(t *testing.T) {
	m1 := makeMatch("m1", round(1), 1)
	m1.Sprints = []model.SprintRecord{
		{Quarter: 1, Won: true},
		{Quarter: 2, Won: "0", WinnerRef: nil},
		{Quarter: 3, Won: nil, WinnerRef: "p7"},
	}
	m2 := makeMatch("m2", round(2), 1)
	m2.Sprints = []model.SprintRecord{
		{Quarter: 1, Won: 0, WinnerRef: "null"},
		{Quarter: 9, Won: true}, // out of range, ignored
	}
	seq := SortMatches([]model.MatchRecord{m2, m1})

	got := SprintSummary(seq)
	if len(got) != model.Quarters {
		t.Fatalf("expected %d quarters, got %d", model.Quarters, len(got))
	}
	q1 := got[0]
	if q1.Played != 2 || q1.Won != 1 || q1.WinPct != 50 {
		t.Errorf("Q1: %+v", q1)
	}
	if got[1].Won != 0 || got[1].Played != 1 {
		t.Errorf("Q2: %+v", got[1])
	}
	if got[2].Won != 1 {
		t.Errorf("Q3 should count the winner reference: %+v", got[2])
	}
	if got[3].Played != 0 || got[3].WinPct != 0 {
		t.Errorf("Q4 unplayed: %+v", got[3])
	}
	if n := SprintsWonBy(seq, "p7"); n != 1 {
		t.Errorf("SprintsWonBy(p7) = %d, want 1", n)
	}
}

func TestQuarterSplit(t *testing.T) {
	m1 := makeMatch("m1", round(1), 1)
	m1.Quarters = []model.QuarterScore{{Quarter: 1, For: intp(3), Against: intp(1)}, {Quarter: 2, For: intp(2)}}
	m2 := makeMatch("m2", round(2), 1)
	m2.Quarters = []model.QuarterScore{{Quarter: 1, For: intp(1), Against: intp(4)}}

	got := QuarterSplit(SortMatches([]model.MatchRecord{m1, m2}))
	if got[0].For != 4 || got[0].Against != 5 || got[0].Matches != 2 {
		t.Errorf("Q1: %+v", got[0])
	}
	if got[1].For != 2 || got[1].Against != 0 || got[1].Matches != 1 {
		t.Errorf("Q2: %+v", got[1])
	}
}

func TestEfficiencyAndSaveRate(t *testing.T) {
	rows := []model.PlayerStatRecord{
		statRow("m1", "p1", model.RoleField, model.Row{model.GolesBoya: 3.0, model.FallosLanzamiento: 1.0}),
		statRow("m1", "gk", model.RoleGoalkeeper, model.Row{model.PorteroParadasBoya: 6.0, model.PorteroGolesPenalti: 2.0}),
	}
	totals := AggregateRows(rows, model.SummaryGroups, nil)
	if got := Efficiency(totals); got != 75 {
		t.Errorf("efficiency: want 75, got %v", got)
	}
	if got := SaveRate(totals); got != 75 {
		t.Errorf("save rate: want 75, got %v", got)
	}
	if got := Efficiency(Totals{}); got != 0 {
		t.Errorf("efficiency without shots: want 0, got %v", got)
	}

	seq := SortMatches([]model.MatchRecord{makeMatch("m1", round(1), 1), makeMatch("m2", round(2), 1)})
	eff := EfficiencySeries(seq, rows, ForRole(model.RoleField))
	if eff[0].Value != 75 || eff[1].Value != 0 || eff[1].CumulativeMean != 37.5 {
		t.Errorf("efficiency series: %+v", eff)
	}
}

func TestMatchResultAndGoalDifference(t *testing.T) {
	home := model.MatchRecord{ID: "h", Round: round(1), IsHome: true, HomeScore: 10, AwayScore: 8}
	away := model.MatchRecord{ID: "a", Round: round(2), IsHome: false, HomeScore: 10, AwayScore: 8}
	draw := model.MatchRecord{ID: "d", Round: round(3), HomeScore: 7, AwayScore: 7}

	if MatchResult(home) != ResultWin || MatchResult(away) != ResultLoss || MatchResult(draw) != ResultDraw {
		t.Error("unexpected match results")
	}
	gd := GoalDifferenceSeries(SortMatches([]model.MatchRecord{draw, away, home}))
	if gd[0].Value != 2 || gd[1].Value != -2 || gd[2].CumulativeTotal != 0 {
		t.Errorf("goal difference series: %+v", gd)
	}
}
