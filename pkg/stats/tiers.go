package stats

import (
	"math"
	"sort"
)

// DefaultTierLabels are used when MakeTiers is given no labels.
var DefaultTierLabels = []string{"Low", "Mid", "High"}

// tierMargin widens the outer bins so the extremes fall inside them.
const tierMargin = 1e3

// MakeTiers puts each value into one of len(labels) equal-quantile bins.
// Missing (NaN) values get no tier.
func MakeTiers(values map[string]float64, labels []string) map[string]string {
	if len(labels) == 0 {
		labels = DefaultTierLabels
	}

	var sorted []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	tiers := make(map[string]string, len(sorted))
	if len(sorted) == 0 {
		return tiers
	}
	sort.Float64s(sorted)

	edges := make([]float64, 0, len(labels)+1)
	edges = append(edges, sorted[0]-tierMargin)
	for i := 1; i < len(labels); i++ {
		edges = append(edges, quantile(sorted, float64(i)/float64(len(labels))))
	}
	edges = append(edges, sorted[len(sorted)-1]+tierMargin)

	for name, v := range values {
		if math.IsNaN(v) {
			continue
		}
		// bins are (edges[i], edges[i+1]]
		i := sort.SearchFloat64s(edges[1:], v)
		if i >= len(labels) {
			i = len(labels) - 1
		}
		tiers[name] = labels[i]
	}
	return tiers
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
