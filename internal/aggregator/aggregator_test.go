package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/pable/go-wp-metrics/internal/model"
)

// round returns a pointer for MatchRecord.Round.
func round(n int) *int { return &n }

func day(d int) time.Time {
	return time.Date(2025, 10, d, 12, 0, 0, 0, time.UTC)
}

// makeMatch builds a minimal MatchRecord.
func makeMatch(id string, jornada *int, d int) model.MatchRecord {
	return model.MatchRecord{ID: id, Round: jornada, Date: day(d)}
}

// statRow builds a stat row for one player in one match.
func statRow(matchID, playerID string, role model.Role, counters model.Row) model.PlayerStatRecord {
	return model.PlayerStatRecord{
		ID:         matchID + "/" + playerID,
		MatchID:    matchID,
		PlayerID:   playerID,
		PlayerName: playerID,
		Role:       role,
		Counters:   counters,
	}
}

// ---- Ratio / percentage ----

func TestPct(t *testing.T) {
	cases := []struct {
		n, d     float64
		decimals int
		want     float64
	}{
		{0, 0, 1, 0},
		{5, 0, 1, 0},
		{1, 4, 1, 25.0},
		{1, 3, 1, 33.3},
		{2, 3, 1, 66.7},
		{2, 3, 0, 67},
		{1, 8, 1, 12.5},
		{1, 16, 1, 6.3}, // 6.25 rounds half-up
		{3, -2, 1, 0},
		{math.NaN(), 2, 1, 0},
		{1, math.Inf(1), 1, 0},
	}
	for _, c := range cases {
		got := Pct(c.n, c.d, c.decimals)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Pct(%v, %v, %d) = %v, want %v", c.n, c.d, c.decimals, got, c.want)
		}
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("Pct(%v, %v) returned non-finite %v", c.n, c.d, got)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(3, 0); got != 0 {
		t.Errorf("Ratio(3,0) = %v, want 0", got)
	}
	if got := Ratio(3, 4); got != 0.75 {
		t.Errorf("Ratio(3,4) = %v, want 0.75", got)
	}
}

// ---- Sequencer ----

func TestSortMatches_RoundThenDate(t *testing.T) {
	in := []model.MatchRecord{
		makeMatch("noround-late", nil, 20),
		makeMatch("j3", round(3), 1),
		makeMatch("j1-late", round(1), 15),
		makeMatch("noround-early", nil, 2),
		makeMatch("j1-early", round(1), 5),
		makeMatch("j2", round(2), 30),
	}
	seq := SortMatches(in)

	want := []string{"j1-early", "j1-late", "j2", "j3", "noround-early", "noround-late"}
	if seq.Len() != len(want) {
		t.Fatalf("expected %d matches, got %d", len(want), seq.Len())
	}
	for i, id := range want {
		if seq.At(i).ID != id {
			t.Errorf("position %d: want %s, got %s", i, id, seq.At(i).ID)
		}
	}

	// Input must be untouched.
	if in[0].ID != "noround-late" || in[1].ID != "j3" {
		t.Error("SortMatches mutated its input")
	}
}

func TestSortMatches_StableOnEqualKeys(t *testing.T) {
	in := []model.MatchRecord{
		makeMatch("a", round(4), 10),
		makeMatch("b", round(4), 10),
		makeMatch("c", round(4), 10),
	}
	seq := SortMatches(in)
	for i, id := range []string{"a", "b", "c"} {
		if seq.At(i).ID != id {
			t.Errorf("stable order broken at %d: got %s", i, seq.At(i).ID)
		}
	}
}

func TestSortMatches_NoRoundAfterAnyRound(t *testing.T) {
	in := []model.MatchRecord{
		makeMatch("none", nil, 1),
		makeMatch("huge", round(math.MaxInt32), 28),
	}
	seq := SortMatches(in)
	if seq.At(0).ID != "huge" || seq.At(1).ID != "none" {
		t.Errorf("match without jornada must sort last, got %s, %s", seq.At(0).ID, seq.At(1).ID)
	}
}

func TestSequencePosition(t *testing.T) {
	seq := SortMatches([]model.MatchRecord{makeMatch("b", round(2), 1), makeMatch("a", round(1), 1)})
	if i, ok := seq.Position("b"); !ok || i != 1 {
		t.Errorf("Position(b) = %d, %v", i, ok)
	}
	if _, ok := seq.Position("zzz"); ok {
		t.Error("unknown id should not have a position")
	}
	if last := seq.Last(1); last.Len() != 1 || last.At(0).ID != "b" {
		t.Errorf("Last(1) should keep the most recent match")
	}
	if SortMatches(nil).Len() != 0 {
		t.Error("empty sequence expected")
	}
}

// ---- Aggregator ----

func TestAggregateMatch(t *testing.T) {
	rows := []model.PlayerStatRecord{
		statRow("m1", "p1", model.RoleField, model.Row{model.GolesBoya: 2.0, model.FallosBoya: 1.0}),
		statRow("m1", "p2", model.RoleField, model.Row{model.GolesPenalti: 1.0, model.AccionesBloqueo: "x"}),
		statRow("m2", "p1", model.RoleField, model.Row{model.GolesBoya: 7.0}),
	}
	got := AggregateMatch("m1", rows, model.SummaryGroups)
	if got.Get(model.BucketGoals) != 3 {
		t.Errorf("goals: want 3, got %v", got.Get(model.BucketGoals))
	}
	if got.Get(model.BucketMisses) != 1 {
		t.Errorf("misses: want 1, got %v", got.Get(model.BucketMisses))
	}
	if got.Get(model.BucketBlocks) != 0 {
		t.Errorf("malformed blocks counter should read 0, got %v", got.Get(model.BucketBlocks))
	}
	if len(got) != len(model.SummaryGroups) {
		t.Errorf("every group needs a bucket, got %d", len(got))
	}
}

func TestAggregateMatch_EmptyRowsYieldZeroBuckets(t *testing.T) {
	got := AggregateMatch("unknown", nil, model.GoalTypes)
	if len(got) != len(model.GoalTypes) {
		t.Fatalf("expected %d buckets, got %d", len(model.GoalTypes), len(got))
	}
	for name, v := range got {
		if v != 0 {
			t.Errorf("bucket %s: want 0, got %v", name, v)
		}
	}
}

func TestAggregateMatch_CustomGroups(t *testing.T) {
	groups := model.Groups{
		{Name: "power play", Keys: []string{model.GolesHombreMas, model.FallosHombreMas}},
	}
	rows := []model.PlayerStatRecord{
		statRow("m1", "p1", model.RoleField, model.Row{model.GolesHombreMas: 2, model.FallosHombreMas: 3}),
	}
	if got := AggregateMatch("m1", rows, groups).Get("power play"); got != 5 {
		t.Errorf("custom group: want 5, got %v", got)
	}
}

// ---- Series ----

func TestBuildSeries(t *testing.T) {
	seq := SortMatches([]model.MatchRecord{
		makeMatch("m3", round(3), 1),
		makeMatch("m1", round(1), 1),
		makeMatch("m2", round(2), 1),
	})
	values := map[string]float64{"m1": 4, "m2": 1, "m3": 7}
	pts := BuildSeries(seq, func(m model.MatchRecord) float64 { return values[m.ID] })

	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if pts[0].CumulativeMean != pts[0].Value {
		t.Errorf("mean at 0 must equal value at 0: %v vs %v", pts[0].CumulativeMean, pts[0].Value)
	}
	var sum float64
	for i, p := range pts {
		sum += p.Value
		if p.Index != i {
			t.Errorf("index %d: got %d", i, p.Index)
		}
		if p.CumulativeTotal != sum {
			t.Errorf("total %d: want %v, got %v", i, sum, p.CumulativeTotal)
		}
		if math.Abs(p.CumulativeMean-sum/float64(i+1)) > 1e-12 {
			t.Errorf("mean %d: want %v, got %v", i, sum/float64(i+1), p.CumulativeMean)
		}
	}
	if pts[0].MatchID != "m1" || pts[2].MatchID != "m3" {
		t.Error("series must follow sequence order")
	}
}

func TestBuildSeries_Empty(t *testing.T) {
	pts := BuildSeries(SortMatches(nil), func(model.MatchRecord) float64 { return 1 })
	if pts == nil || len(pts) != 0 {
		t.Errorf("expected empty non-nil series, got %v", pts)
	}
}

// End-to-end: blocks [2,4,3] and goals received [1,2,0] over three matches.
func TestBalanceScenario(t *testing.T) {
	seq := SortMatches([]model.MatchRecord{
		makeMatch("m1", round(1), 1),
		makeMatch("m2", round(2), 8),
		makeMatch("m3", round(3), 15),
	})
	blocks := []float64{2, 4, 3}
	received := []float64{1, 2, 0}
	var rows []model.PlayerStatRecord
	for i, id := range []string{"m1", "m2", "m3"} {
		rows = append(rows,
			statRow(id, "field", model.RoleField, model.Row{model.AccionesBloqueo: blocks[i]}),
			statRow(id, "gk", model.RoleGoalkeeper, model.Row{model.PorteroGolesBoya: received[i]}),
		)
	}

	balance := BalanceSeries(seq, rows, model.SummaryGroups, model.BucketBlocks, model.BucketConceded, nil)
	for i, want := range []float64{1, 2, 3} {
		if balance[i].Value != want {
			t.Errorf("balance %d: want %v, got %v", i, want, balance[i].Value)
		}
	}

	blockSeries := GroupSeries(seq, rows, model.SummaryGroups, model.BucketBlocks, nil)
	if blockSeries[1].CumulativeMean != 3.0 {
		t.Errorf("blocks mean after match 2: want 3.0, got %v", blockSeries[1].CumulativeMean)
	}
	if blockSeries[2].CumulativeMean != 3.0 {
		t.Errorf("blocks mean after match 3: want 3.0, got %v", blockSeries[2].CumulativeMean)
	}
}
