package resilience

import (
	"math"
	"sort"
)

// InterpolateExposure extends a sparse exposure-ratio table to the union of its
// own return periods and targets.
//
// A value at return period 0 is extrapolated linearly from the two smallest
// known return periods, points in between are interpolated linearly, and the
// largest known value is held for anything beyond it. Results are clipped at
// zero and remaining gaps are forward filled along the return-period axis.
// Gaps that cannot be filled are left out of the returned table.
func InterpolateExposure(ratios ExposureRatios, targets []float64) ExposureRatios {
	columns := make(map[float64]bool)
	for _, rp := range append(ratios.ReturnPeriods(), targets...) {
		if rp > 0 {
			columns[rp] = true
		}
	}
	grid := sortedKeys(columns)

	out := make(ExposureRatios, len(ratios))
	for id, known := range ratios {
		values := interpolateRow(known, grid)

		row := make(map[float64]float64, len(grid))
		last := math.NaN()
		for i, rp := range grid {
			v := values[i]
			if !math.IsNaN(v) && v < 0 {
				v = 0
			}
			if math.IsNaN(v) {
				v = last
			}
			if !math.IsNaN(v) {
				row[rp] = v
				last = v
			}
		}
		out[id] = row
	}
	return out
}

// interpolateRow evaluates one unit's known points on grid. Asks outside the
// interpolable range, other than the right hold, come back as NaN.
func interpolateRow(known map[float64]float64, grid []float64) []float64 {
	xs := make([]float64, 0, len(known)+1)
	for rp, v := range known {
		if rp > 0 && !math.IsNaN(v) {
			xs = append(xs, rp)
		}
	}
	sort.Float64s(xs)

	out := make([]float64, len(grid))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(xs) == 0 {
		return out
	}

	ys := make([]float64, len(xs))
	for i, rp := range xs {
		ys[i] = known[rp]
	}
	if len(xs) >= 2 {
		slope := (ys[1] - ys[0]) / (xs[1] - xs[0])
		xs = append([]float64{0}, xs...)
		ys = append([]float64{ys[0] - slope*xs[1]}, ys...)
	}

	right := len(xs) - 1
	for i, rp := range grid {
		switch {
		case rp >= xs[right]:
			out[i] = ys[right]
		case rp < xs[0]:
			// left of every known point: no data
		default:
			j := sort.SearchFloat64s(xs, rp)
			if xs[j] == rp {
				out[i] = ys[j]
				continue
			}
			x0, x1 := xs[j-1], xs[j]
			y0, y1 := ys[j-1], ys[j]
			out[i] = y0 + (y1-y0)*(rp-x0)/(x1-x0)
		}
	}
	return out
}
