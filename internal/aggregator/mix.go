package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-wp-metrics/internal/model"
)

// NamedCount is one raw bucket value for BuildMix.
type NamedCount struct {
	Name  string
	Value float64
}

// BuildMix computes each bucket's share of the total. Percentages are
// allocated by largest remainder so they sum to exactly 100 when the total is
// positive. The most frequent bucket is the first one in declared order among
// those sharing the maximum.
func BuildMix(counts []NamedCount) model.CategoryMix {
	mix := model.CategoryMix{
		Buckets:  make([]model.Bucket, 0, len(counts)),
		TopIndex: -1,
	}
	for _, c := range counts {
		v := c.Value
		if !finite(v) {
			v = 0
		}
		mix.Total += v
		mix.Buckets = append(mix.Buckets, model.Bucket{Name: c.Name, Value: v})
	}
	allocatePct(mix.Buckets, mix.Total)
	for i := range mix.Buckets {
		if mix.TopIndex < 0 || mix.Buckets[i].Value > mix.Buckets[mix.TopIndex].Value {
			mix.TopIndex = i
		}
	}
	if mix.TopIndex >= 0 {
		mix.Top = mix.Buckets[mix.TopIndex].Name
	}
	return mix
}

// allocatePct floors every share to a PctDecimals unit, then hands the
// leftover units to the largest remainders, earlier buckets first on ties.
func allocatePct(buckets []model.Bucket, total float64) {
	if !finite(total) || total <= 0 {
		return
	}
	scale := math.Pow(10, PctDecimals)
	units := int(100 * scale)

	rem := make([]float64, len(buckets))
	alloc := make([]int, len(buckets))
	assigned := 0
	for i, b := range buckets {
		exact := b.Value / total * float64(units)
		if !finite(exact) || exact < 0 {
			continue
		}
		// Absorb float noise so exact shares such as 250.0 do not floor to 249.
		f := math.Floor(exact + 1e-9)
		alloc[i] = int(f)
		rem[i] = exact - f
		assigned += alloc[i]
	}

	order := make([]int, len(buckets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })
	for left, k := units-assigned, 0; left > 0 && k < len(order); left, k = left-1, k+1 {
		if rem[order[k]] <= 0 {
			break
		}
		alloc[order[k]]++
	}

	for i := range buckets {
		buckets[i].Pct = float64(alloc[i]) / scale
	}
}

// CountsFromTotals lists totals in the groups' declared order.
func CountsFromTotals(t Totals, groups model.Groups) []NamedCount {
	out := make([]NamedCount, len(groups))
	for i, g := range groups {
		out[i] = NamedCount{Name: g.Name, Value: t.Get(g.Name)}
	}
	return out
}
