package aggregator

import (
	"math"
	"testing"

	"github.com/pable/go-wp-metrics/internal/model"
)

func TestBuildMix_PercentagesSumTo100(t *testing.T) {
	cases := [][]float64{
		{1, 1, 1},
		{2, 4, 3},
		{1, 2},
		{7, 0, 0, 1},
		{13, 5, 2, 9, 1, 1, 4},
		{1, 1, 1, 1, 1, 1, 0},
		{1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, values := range cases {
		counts := make([]NamedCount, len(values))
		for i, v := range values {
			counts[i] = NamedCount{Name: string(rune('a' + i)), Value: v}
		}
		mix := BuildMix(counts)
		var sum float64
		for _, b := range mix.Buckets {
			sum += b.Pct
		}
		if math.Abs(sum-100) > 0.1+1e-9 {
			t.Errorf("%v: pct sum %v not within one rounding unit of 100", values, sum)
		}
	}
}

func TestBuildMix_LargestRemainder(t *testing.T) {
	mix := BuildMix([]NamedCount{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}, {"e", 1}, {"f", 1}, {"g", 0}})
	want := []float64{16.7, 16.7, 16.7, 16.7, 16.6, 16.6, 0}
	for i, b := range mix.Buckets {
		if math.Abs(b.Pct-want[i]) > 1e-9 {
			t.Errorf("bucket %s: want %v, got %v", b.Name, want[i], b.Pct)
		}
	}

	thirds := BuildMix([]NamedCount{{"a", 1}, {"b", 1}, {"c", 1}})
	if thirds.Buckets[0].Pct != 33.4 || thirds.Buckets[1].Pct != 33.3 || thirds.Buckets[2].Pct != 33.3 {
		t.Errorf("thirds: %+v", thirds.Buckets)
	}
}

func TestBuildMix_ZeroTotal(t *testing.T) {
	mix := BuildMix([]NamedCount{{"a", 0}, {"b", 0}})
	if mix.Total != 0 {
		t.Errorf("total: want 0, got %v", mix.Total)
	}
	for _, b := range mix.Buckets {
		if b.Pct != 0 {
			t.Errorf("bucket %s: want 0%%, got %v", b.Name, b.Pct)
		}
	}
}

func TestBuildMix_TieBreakIsDeclaredOrder(t *testing.T) {
	mix := BuildMix([]NamedCount{{"boya", 2}, {"penalti", 5}, {"contraataque", 5}, {"fuera_7m", 1}})
	if mix.Top != "penalti" || mix.TopIndex != 1 {
		t.Errorf("tie should go to the first declared bucket, got %s (%d)", mix.Top, mix.TopIndex)
	}

	allZero := BuildMix([]NamedCount{{"x", 0}, {"y", 0}})
	if allZero.Top != "x" {
		t.Errorf("all-zero tie should pick the first bucket, got %q", allZero.Top)
	}
}

func TestBuildMix_Empty(t *testing.T) {
	mix := BuildMix(nil)
	if mix.TopIndex != -1 || mix.Top != "" || len(mix.Buckets) != 0 {
		t.Errorf("unexpected empty mix: %+v", mix)
	}
}

func TestBuildMix_Values(t *testing.T) {
	mix := BuildMix([]NamedCount{{"a", 1}, {"b", 3}, {"c", math.NaN()}})
	if mix.Total != 4 {
		t.Fatalf("total: want 4, got %v", mix.Total)
	}
	if mix.Buckets[0].Pct != 25 || mix.Buckets[1].Pct != 75 || mix.Buckets[2].Pct != 0 {
		t.Errorf("pcts: %+v", mix.Buckets)
	}
	if mix.Top != "b" {
		t.Errorf("top: want b, got %s", mix.Top)
	}
}

func TestPlayerMix(t *testing.T) {
	rows := []model.PlayerStatRecord{
		statRow("m1", "p1", model.RoleField, model.Row{model.GolesBoya: 1.0, model.GolesPenalti: 3.0}),
		statRow("m2", "p1", model.RoleField, model.Row{model.GolesBoya: 2.0}),
		statRow("m2", "p2", model.RoleField, model.Row{model.GolesContraataque: 10.0}),
	}
	mix := PlayerMix(rows, model.GoalTypes, ForPlayer("p1"))
	if mix.Total != 6 {
		t.Fatalf("total: want 6, got %v", mix.Total)
	}
	// boya and penalti tie at 3; boya is declared first.
	if mix.Top != "boya" {
		t.Errorf("top: want boya, got %s", mix.Top)
	}
	if len(mix.Buckets) != len(model.GoalTypes) {
		t.Errorf("expected a bucket per goal type, got %d", len(mix.Buckets))
	}
}
