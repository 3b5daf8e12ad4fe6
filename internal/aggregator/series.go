package aggregator

import "github.com/pable/go-wp-metrics/internal/model"

// BuildSeries folds a per-match value over the sequence into running totals
// and means. Non-finite values count as zero.
func BuildSeries(seq Sequence, value func(model.MatchRecord) float64) []model.SeriesPoint {
	out := make([]model.SeriesPoint, 0, seq.Len())
	var total float64
	for i := 0; i < seq.Len(); i++ {
		m := seq.At(i)
		v := value(m)
		if !finite(v) {
			v = 0
		}
		total += v
		out = append(out, model.SeriesPoint{
			Index:           i,
			MatchID:         m.ID,
			Value:           v,
			CumulativeTotal: total,
			CumulativeMean:  total / float64(i+1),
		})
	}
	return out
}

// SeriesFromTotals builds a series from one bucket of precomputed match totals.
// The totals must come from MatchTotalsFor on the same sequence.
func SeriesFromTotals(seq Sequence, totals []MatchTotals, bucket string) []model.SeriesPoint {
	byID := make(map[string]float64, len(totals))
	for _, t := range totals {
		byID[t.Match.ID] = t.Totals.Get(bucket)
	}
	return BuildSeries(seq, func(m model.MatchRecord) float64 { return byID[m.ID] })
}
