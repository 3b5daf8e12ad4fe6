package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-wp-metrics/internal/model"
)

// ComputeScore applies a weight map to one stat row and rounds the weighted
// sum half-up. Entries whose weight or value is not a finite number are
// skipped. Keys are visited in sorted order so the float sum is reproducible.
// Totals beyond the int range saturate.
func ComputeScore(row model.Row, weights model.WeightMap) int {
	if len(weights) == 0 {
		return 0
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		w, ok := model.Float(weights[k])
		if !ok {
			continue
		}
		v, ok := model.Float(row[k])
		if !ok {
			continue
		}
		total += w * v
	}
	r := math.Floor(total + 0.5)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return int(r)
}
