package resilience

import (
	"math"
)

// ReturnPeriodProbabilities assigns occurrence probabilities to the distinct
// return periods rps.
//
// Each return period carries the band of exceedance probability between it and
// the next more frequent return period present, the most frequent one being
// anchored at 1. The rarest return period also carries the tail down to zero
// exceedance. Return periods at or below protection get no mass, so the total
// mass equals the exceedance probability of the protection boundary.
// Non-positive return periods are ignored.
func ReturnPeriodProbabilities(rps []float64, protection float64) map[float64]float64 {
	seen := make(map[float64]bool, len(rps))
	for _, rp := range rps {
		if rp > 0 {
			seen[rp] = true
		}
	}
	sorted := sortedKeys(seen)

	out := make(map[float64]float64, len(sorted))
	prev := 1.0
	for i, rp := range sorted {
		e := 1 / rp
		p := prev - e
		if i == len(sorted)-1 {
			p = prev
		}
		prev = e
		if rp <= protection {
			p = 0
		}
		out[rp] = math.Max(0, p)
	}
	return out
}

// AverageOverReturnPeriods turns per return period losses into expected losses
// per (unit, hazard). The protection threshold is read from the snapshot.
// Losses without a return-period dimension are passed through.
//
// The expectation is conditional on the return periods that carry mass: a
// group whose whole mass is removed by protection yields NaN.
func AverageOverReturnPeriods(losses []Loss, hasRP bool, ref *Snapshot) ([]Loss, error) {
	if !hasRP {
		return append([]Loss(nil), losses...), nil
	}

	groups, order := groupLosses(losses, func(k Key) Key { return Key{Unit: k.Unit, Hazard: k.Hazard} })

	out := make([]Loss, 0, len(order))
	for _, k := range order {
		group := groups[k]
		r, err := ref.mustLookup(k.Unit)
		if err != nil {
			return nil, err
		}

		rps := make([]float64, len(group))
		for i, l := range group {
			rps[i] = l.Key.RP
		}
		probs := ReturnPeriodProbabilities(rps, r.Protection)

		agg := Loss{Key: k}
		var total float64
		for i := range group {
			p := probs[group[i].Key.RP]
			total += p
			agg.add(group[i].scaled(p))
		}
		out = append(out, agg.scaled(safeInverse(total)))
	}
	return out, nil
}

// SumOverHazards adds up expected losses of independent hazards per unit.
// Losses without a hazard dimension are passed through.
func SumOverHazards(losses []Loss, hasHazard bool) []Loss {
	if !hasHazard {
		return append([]Loss(nil), losses...)
	}

	groups, order := groupLosses(losses, func(k Key) Key { return Key{Unit: k.Unit, RP: k.RP} })

	out := make([]Loss, 0, len(order))
	for _, k := range order {
		agg := Loss{Key: k}
		for _, l := range groups[k] {
			agg.add(l)
		}
		out = append(out, agg)
	}
	return out
}

func groupLosses(losses []Loss, keyOf func(Key) Key) (map[Key][]Loss, []Key) {
	groups := make(map[Key][]Loss)
	var order []Key
	for _, l := range losses {
		k := keyOf(l.Key)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], l)
	}
	return groups, order
}

func safeInverse(x float64) float64 {
	if x == 0 {
		return math.NaN()
	}
	return 1 / x
}
