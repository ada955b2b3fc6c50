package resilience

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Perturbation is a marginal change of one input field. An empty Hazard
// addresses the unit table; otherwise the change applies to that hazard's
// overrides.
type Perturbation struct {
	Field     Field   `yaml:"field" json:"field"`
	Hazard    string  `yaml:"hazard,omitempty" json:"hazard,omitempty"`
	Increment float64 `yaml:"increment" json:"increment"`
}

func (p Perturbation) String() string {
	if p.Hazard == "" {
		return p.Field.String()
	}
	return p.Field.String() + "[" + p.Hazard + "]"
}

// Range bounds a field. Nil ends are open.
type Range struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

func (r Range) clip(v float64) float64 {
	if r.Min != nil && v < *r.Min {
		v = *r.Min
	}
	if r.Max != nil && v > *r.Max {
		v = *r.Max
	}
	return v
}

// Bounds holds the admissible range of perturbed fields.
type Bounds map[Field]Range

// PolicyDelta is the effect of one perturbation on one unit's outputs.
type PolicyDelta struct {
	Unit         string       `json:"unit"`
	Perturbation Perturbation `json:"perturbation"`

	DWTotCurrency float64 `json:"dWtot_currency"`
	DKTot         float64 `json:"dKtot"`
	Risk          float64 `json:"risk"`
	Resilience    float64 `json:"resilience"`
}

// AssessPolicies measures the marginal effect of each perturbation. Every run
// starts from a fresh copy of in and is compared against the baseline, with
// reference values frozen from the unperturbed units.
func (e *Engine) AssessPolicies(ctx context.Context, in Inputs, perturbations []Perturbation, bounds Bounds) ([]PolicyDelta, error) {
	ref, err := NewSnapshot(in.Units)
	if err != nil {
		return nil, err
	}

	baseline, err := e.Compute(ctx, in, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to compute baseline: %w", err)
	}
	base := make(map[string]Result, len(baseline))
	for _, r := range baseline {
		base[r.Unit] = r
	}

	var out []PolicyDelta
	for _, p := range perturbations {
		e.cfg.Logger.Debug("assessing policy", "perturbation", p.String(), "increment", p.Increment)

		work := in.Clone()
		if err := e.perturb(&work, p, bounds); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		results, err := e.Compute(ctx, work, ref)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}

		for _, r := range results {
			b, ok := base[r.Unit]
			if !ok {
				continue
			}
			d := PolicyDelta{
				Unit:          r.Unit,
				Perturbation:  p,
				DWTotCurrency: r.DWTotCurrency - b.DWTotCurrency,
				DKTot:         r.DKTot - b.DKTot,
				Risk:          r.Risk - b.Risk,
				Resilience:    r.Resilience - b.Resilience,
			}
			if allNaN(d.DWTotCurrency, d.DKTot, d.Risk, d.Resilience) {
				continue
			}
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out, nil
}

func (e *Engine) perturb(in *Inputs, p Perturbation, bounds Bounds) error {
	rng := bounds[p.Field]
	var clipped []string

	if p.Hazard == "" {
		for i := range in.Units {
			u := &in.Units[i]
			v := p.Field.Get(u) + p.Increment
			if c := rng.clip(v); c != v {
				clipped = append(clipped, u.ID)
				v = c
			}
			p.Field.Set(u, v)
		}
	} else {
		if p.Field.Reference() {
			return fmt.Errorf("%w: %s cannot be set per hazard", ErrInvalidInput, p.Field)
		}
		units := make(map[string]*Unit, len(in.Units))
		for i := range in.Units {
			units[in.Units[i].ID] = &in.Units[i]
		}

		var matched int
		for i := range in.Hazards {
			h := &in.Hazards[i]
			if h.Hazard != p.Hazard {
				continue
			}
			u, ok := units[h.Unit]
			if !ok {
				continue
			}
			matched++
			v, ok := h.Overrides[p.Field]
			if !ok {
				v = p.Field.Get(u)
			}
			v += p.Increment
			if c := rng.clip(v); c != v {
				clipped = append(clipped, h.Unit)
				v = c
			}
			if h.Overrides == nil {
				h.Overrides = make(map[Field]float64)
			}
			h.Overrides[p.Field] = v
		}
		if matched == 0 {
			return fmt.Errorf("%w: no hazard info for hazard %q", ErrInvalidInput, p.Hazard)
		}
	}

	if len(clipped) > 0 {
		e.cfg.Logger.Warn("clipped perturbed values", "field", p.String(), "units", clipped)
	}
	return nil
}

func allNaN(vs ...float64) bool {
	for _, v := range vs {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
