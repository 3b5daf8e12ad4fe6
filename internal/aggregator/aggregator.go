package aggregator

import (
	"github.com/pable/go-wp-metrics/internal/model"
)

// Totals holds one summed value per bucket name.
type Totals map[string]float64

// Get returns a bucket total; unknown buckets are zero.
func (t Totals) Get(name string) float64 { return t[name] }

// Sum adds the given buckets together.
func (t Totals) Sum(names ...string) float64 {
	var s float64
	for _, n := range names {
		s += t[n]
	}
	return s
}

// RowFilter selects which stat rows take part in an aggregation. A nil filter
// keeps every row.
type RowFilter func(model.PlayerStatRecord) bool

// ForPlayer keeps the rows of one player.
func ForPlayer(playerID string) RowFilter {
	if playerID == "" {
		return nil
	}
	return func(s model.PlayerStatRecord) bool { return s.PlayerID == playerID }
}

// ForRole keeps the rows recorded under one role.
func ForRole(r model.Role) RowFilter {
	return func(s model.PlayerStatRecord) bool { return s.Role == r }
}

func (f RowFilter) keep(s model.PlayerStatRecord) bool {
	return f == nil || f(s)
}

// AggregateMatch sums every group's keys over the rows belonging to matchID.
// Every group gets a bucket, zero when no rows match.
func AggregateMatch(matchID string, rows []model.PlayerStatRecord, groups model.Groups) Totals {
	return aggregate(matchID, rows, groups, nil)
}

func aggregate(matchID string, rows []model.PlayerStatRecord, groups model.Groups, filter RowFilter) Totals {
	out := make(Totals, len(groups))
	for _, g := range groups {
		out[g.Name] = 0
	}
	for _, r := range rows {
		if r.MatchID != matchID || !filter.keep(r) {
			continue
		}
		for _, g := range groups {
			for _, k := range g.Keys {
				out[g.Name] += model.Num(r.Counters, k)
			}
		}
	}
	return out
}

// AggregateRows sums every group's keys over all rows, regardless of match.
func AggregateRows(rows []model.PlayerStatRecord, groups model.Groups, filter RowFilter) Totals {
	out := make(Totals, len(groups))
	for _, g := range groups {
		out[g.Name] = 0
	}
	for _, r := range rows {
		if !filter.keep(r) {
			continue
		}
		for _, g := range groups {
			for _, k := range g.Keys {
				out[g.Name] += model.Num(r.Counters, k)
			}
		}
	}
	return out
}

// MatchTotals pairs a match with its aggregated buckets.
type MatchTotals struct {
	Match  model.MatchRecord
	Totals Totals
}

// MatchTotalsFor aggregates every match of the sequence, in sequence order.
func MatchTotalsFor(seq Sequence, rows []model.PlayerStatRecord, groups model.Groups, filter RowFilter) []MatchTotals {
	out := make([]MatchTotals, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		m := seq.At(i)
		out = append(out, MatchTotals{Match: m, Totals: aggregate(m.ID, rows, groups, filter)})
	}
	return out
}
