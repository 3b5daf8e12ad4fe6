package aggregator

import (
	"sort"

	"github.com/pable/go-wp-metrics/internal/model"
)

// GroupSeries is the running series of one bucket across the sequence.
func GroupSeries(seq Sequence, rows []model.PlayerStatRecord, groups model.Groups, bucket string, filter RowFilter) []model.SeriesPoint {
	return SeriesFromTotals(seq, MatchTotalsFor(seq, rows, groups, filter), bucket)
}

// BalanceSeries is plus minus minus per match, e.g. blocks against goals
// received, with its running mean.
func BalanceSeries(seq Sequence, rows []model.PlayerStatRecord, groups model.Groups, plus, minus string, filter RowFilter) []model.SeriesPoint {
	totals := MatchTotalsFor(seq, rows, groups, filter)
	byID := make(map[string]float64, len(totals))
	for _, t := range totals {
		byID[t.Match.ID] = t.Totals.Get(plus) - t.Totals.Get(minus)
	}
	return BuildSeries(seq, func(m model.MatchRecord) float64 { return byID[m.ID] })
}

// Efficiency is goals over shot attempts (goals plus misses), as a percentage.
func Efficiency(t Totals) float64 {
	goals := t.Get(model.BucketGoals)
	return Pct(goals, goals+t.Get(model.BucketMisses), PctDecimals)
}

// SaveRate is saves over shots faced (saves plus conceded), as a percentage.
func SaveRate(t Totals) float64 {
	saves := t.Get(model.BucketSaves)
	return Pct(saves, saves+t.Get(model.BucketConceded), PctDecimals)
}

// EfficiencySeries is the per-match shooting efficiency with its running mean.
func EfficiencySeries(seq Sequence, rows []model.PlayerStatRecord, filter RowFilter) []model.SeriesPoint {
	totals := MatchTotalsFor(seq, rows, model.SummaryGroups, filter)
	byID := make(map[string]float64, len(totals))
	for _, t := range totals {
		byID[t.Match.ID] = Efficiency(t.Totals)
	}
	return BuildSeries(seq, func(m model.MatchRecord) float64 { return byID[m.ID] })
}

// PlayerMix is the category mix of a group list over the filtered rows.
func PlayerMix(rows []model.PlayerStatRecord, groups model.Groups, filter RowFilter) model.CategoryMix {
	return BuildMix(CountsFromTotals(AggregateRows(rows, groups, filter), groups))
}

// Scoreboard scores every stat row with the weight map matching its role,
// best first. Ties sort by player name then match id.
func Scoreboard(rows []model.PlayerStatRecord, field, goalkeeper model.WeightMap) []model.PlayerScore {
	out := make([]model.PlayerScore, 0, len(rows))
	for _, r := range rows {
		w := field
		if r.Role == model.RoleGoalkeeper {
			w = goalkeeper
		}
		out = append(out, model.PlayerScore{
			MatchID:    r.MatchID,
			PlayerID:   r.PlayerID,
			PlayerName: r.PlayerName,
			Role:       r.Role,
			Score:      ComputeScore(r.Counters, w),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].PlayerName != out[j].PlayerName {
			return out[i].PlayerName < out[j].PlayerName
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out
}

// ScoreSeries is one player's composite score per match. Matches the player
// did not play score zero.
func ScoreSeries(seq Sequence, rows []model.PlayerStatRecord, playerID string, weights model.WeightMap) []model.SeriesPoint {
	scores := make(map[string]int)
	for _, r := range rows {
		if r.PlayerID != playerID {
			continue
		}
		scores[r.MatchID] += ComputeScore(r.Counters, weights)
	}
	points := BuildSeries(seq, func(m model.MatchRecord) float64 { return float64(scores[m.ID]) })
	for i := range points {
		s := scores[points[i].MatchID]
		points[i].Score = &s
	}
	return points
}

// SprintSummary counts opening sprints won per quarter. A quarter is played
// when the match recorded either sprint signal for it.
func SprintSummary(seq Sequence) []model.SprintQuarter {
	out := make([]model.SprintQuarter, model.Quarters)
	for q := range out {
		out[q].Quarter = q + 1
	}
	for i := 0; i < seq.Len(); i++ {
		for _, s := range seq.At(i).Sprints {
			if s.Quarter < 1 || s.Quarter > model.Quarters {
				continue
			}
			sq := &out[s.Quarter-1]
			sq.Played++
			if IsAffirmative(s.Won, s.WinnerRef) {
				sq.Won++
			}
		}
	}
	for q := range out {
		out[q].WinPct = Pct(float64(out[q].Won), float64(out[q].Played), PctDecimals)
	}
	return out
}

// SprintsWonBy counts sprints whose winner reference names the player.
func SprintsWonBy(seq Sequence, playerID string) int {
	n := 0
	for i := 0; i < seq.Len(); i++ {
		for _, s := range seq.At(i).Sprints {
			if ref, ok := s.WinnerRef.(string); ok && ref == playerID {
				n++
			}
		}
	}
	return n
}

// QuarterSplit sums goals for and against per quarter over matches that
// recorded the quarter.
func QuarterSplit(seq Sequence) []model.QuarterTotals {
	out := make([]model.QuarterTotals, model.Quarters)
	for q := range out {
		out[q].Quarter = q + 1
	}
	for i := 0; i < seq.Len(); i++ {
		for _, qs := range seq.At(i).Quarters {
			if qs.Quarter < 1 || qs.Quarter > model.Quarters {
				continue
			}
			qt := &out[qs.Quarter-1]
			qt.Matches++
			if qs.For != nil {
				qt.For += *qs.For
			}
			if qs.Against != nil {
				qt.Against += *qs.Against
			}
		}
	}
	return out
}

// Result is a match outcome from the club's side.
type Result string

const (
	ResultWin  Result = "W"
	ResultDraw Result = "D"
	ResultLoss Result = "L"
)

// MatchResult classifies a match from the club's perspective.
func MatchResult(m model.MatchRecord) Result {
	switch gf, ga := m.GoalsFor(), m.GoalsAgainst(); {
	case gf > ga:
		return ResultWin
	case gf < ga:
		return ResultLoss
	default:
		return ResultDraw
	}
}

// GoalDifferenceSeries is goals for minus against per match.
func GoalDifferenceSeries(seq Sequence) []model.SeriesPoint {
	return BuildSeries(seq, func(m model.MatchRecord) float64 {
		return float64(m.GoalsFor() - m.GoalsAgainst())
	})
}
