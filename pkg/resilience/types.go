package resilience

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrDomain is returned when inputs leave the domain of the welfare model,
	// e.g. non-positive consumption or fractions outside [0, 1].
	ErrDomain = errors.New("resilience: input outside model domain")

	// ErrInvalidInput is returned for malformed tables.
	ErrInvalidInput = errors.New("resilience: invalid input")

	// ErrMissingReference is returned when a unit has no frozen reference values.
	ErrMissingReference = errors.New("resilience: missing reference values")
)

// Unit is one row of the baseline table: the socio-economic inputs of a
// province or region.
type Unit struct {
	ID string `json:"id"`

	Pop         float64 `json:"pop"`
	GDPpcPP     float64 `json:"gdp_pc_pp"`
	GDPpcPPNat  float64 `json:"gdp_pc_pp_nat"`
	PovHead     float64 `json:"pov_head"`
	ShareP      float64 `json:"share1"` // consumption share of the poor
	IncomeElast float64 `json:"income_elast"`
	AvgProdK    float64 `json:"avg_prod_k"`
	TRebuildK   float64 `json:"T_rebuild_K"`
	Rho         float64 `json:"rho"`
	Protection  float64 `json:"protection"`

	SocialP float64 `json:"social_p"`
	SocialR float64 `json:"social_r"`
	SigmaP  float64 `json:"sigma_p"`
	SigmaR  float64 `json:"sigma_r"`

	Fap float64 `json:"fap"`
	Far float64 `json:"far"`
	VP  float64 `json:"v_p"`
	VR  float64 `json:"v_r"`

	// Early warning: availability and the share of vulnerability it removes.
	Pi    float64 `json:"pi"`
	Shewp float64 `json:"shewp"`
	Shewr float64 `json:"shewr"`
	Shew  float64 `json:"shew"`

	ExposureBias      float64 `json:"pe"`
	VulnerabilityBias float64 `json:"pv"`
	NatBuyout         float64 `json:"nat_buyout"`
	DestitutionShare  float64 `json:"dest_share"`
	DestitutionLevel  float64 `json:"dest_level"`
}

// Validate checks the unit against the physical ranges of the model.
func (u *Unit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: unit without id", ErrInvalidInput)
	}
	for _, f := range Fields() {
		v := f.Get(u)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s: %s is not finite", ErrDomain, u.ID, f)
		}
		if f.Fraction() && (v < 0 || v > 1) {
			return fmt.Errorf("%w: %s: %s=%g outside [0, 1]", ErrDomain, u.ID, f, v)
		}
	}
	switch {
	case u.PovHead <= 0 || u.PovHead >= 1:
		return fmt.Errorf("%w: %s: pov_head=%g must be strictly between 0 and 1", ErrDomain, u.ID, u.PovHead)
	case u.GDPpcPP <= 0 || u.GDPpcPPNat <= 0:
		return fmt.Errorf("%w: %s: gdp per capita must be positive", ErrDomain, u.ID)
	case u.AvgProdK <= 0 || u.Rho <= 0 || u.TRebuildK <= 0:
		return fmt.Errorf("%w: %s: avg_prod_k, rho and T_rebuild_K must be positive", ErrDomain, u.ID)
	case u.IncomeElast < 0:
		return fmt.Errorf("%w: %s: income_elast=%g must be non-negative", ErrDomain, u.ID, u.IncomeElast)
	case u.Protection <= 0:
		return fmt.Errorf("%w: %s: protection=%g must be positive", ErrDomain, u.ID, u.Protection)
	case u.Pop < 0:
		return fmt.Errorf("%w: %s: pop=%g must be non-negative", ErrDomain, u.ID, u.Pop)
	}
	return nil
}

// HazardInfo carries (unit, hazard) specific overrides of unit fields.
type HazardInfo struct {
	Unit      string            `json:"unit"`
	Hazard    string            `json:"hazard"`
	Overrides map[Field]float64 `json:"overrides,omitempty"`
}

// ExposureRatios maps unit id to return period to a multiplier on the
// baseline exposure.
type ExposureRatios map[string]map[float64]float64

// ReturnPeriods lists the distinct return periods present, ascending.
func (e ExposureRatios) ReturnPeriods() []float64 {
	seen := make(map[float64]bool)
	for _, byRP := range e {
		for rp := range byRP {
			seen[rp] = true
		}
	}
	return sortedKeys(seen)
}

// Inputs bundles the tables the pipeline reads. Hazards and Exposure are
// optional.
type Inputs struct {
	Units    []Unit
	Hazards  []HazardInfo
	Exposure ExposureRatios
}

// Clone returns a deep copy so that perturbations never leak into the caller's
// tables.
func (in Inputs) Clone() Inputs {
	out := Inputs{Units: append([]Unit(nil), in.Units...)}
	if in.Hazards != nil {
		out.Hazards = make([]HazardInfo, len(in.Hazards))
		for i, h := range in.Hazards {
			h.Overrides = cloneOverrides(h.Overrides)
			out.Hazards[i] = h
		}
	}
	if in.Exposure != nil {
		out.Exposure = make(ExposureRatios, len(in.Exposure))
		for id, byRP := range in.Exposure {
			m := make(map[float64]float64, len(byRP))
			for rp, v := range byRP {
				m[rp] = v
			}
			out.Exposure[id] = m
		}
	}
	return out
}

func cloneOverrides(m map[Field]float64) map[Field]float64 {
	if m == nil {
		return nil
	}
	out := make(map[Field]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Key addresses a row of the expanded cube. Hazard is empty and RP is zero
// when the corresponding dimension is absent.
type Key struct {
	Unit   string  `json:"unit"`
	Hazard string  `json:"hazard,omitempty"`
	RP     float64 `json:"rp,omitempty"`
}

func (k Key) less(o Key) bool {
	if k.Unit != o.Unit {
		return k.Unit < o.Unit
	}
	if k.Hazard != o.Hazard {
		return k.Hazard < o.Hazard
	}
	return k.RP < o.RP
}

// Loss is the per-row output of the loss calculator, and after aggregation
// the per (unit, hazard) or per unit expected loss.
type Loss struct {
	Key Key `json:"key"`

	DK            float64 `json:"dK"`
	DeltaW        float64 `json:"delta_W"`
	DeltaWPoor    float64 `json:"delta_W_p"`
	DeltaWNonPoor float64 `json:"delta_W_r"`
	DCap          float64 `json:"dcap"`
	DCar          float64 `json:"dcar"`
}

func (l *Loss) scaled(w float64) Loss {
	return Loss{
		Key:           l.Key,
		DK:            l.DK * w,
		DeltaW:        l.DeltaW * w,
		DeltaWPoor:    l.DeltaWPoor * w,
		DeltaWNonPoor: l.DeltaWNonPoor * w,
		DCap:          l.DCap * w,
		DCar:          l.DCar * w,
	}
}

func (l *Loss) add(o Loss) {
	l.DK += o.DK
	l.DeltaW += o.DeltaW
	l.DeltaWPoor += o.DeltaWPoor
	l.DeltaWNonPoor += o.DeltaWNonPoor
	l.DCap += o.DCap
	l.DCar += o.DCar
}

// Result is one row of the aggregated output table.
type Result struct {
	Unit string `json:"unit"`

	Pop        float64 `json:"pop"`
	GDPpcPP    float64 `json:"gdp_pc_pp"`
	Protection float64 `json:"protection"`

	DK            float64 `json:"dK"`
	DKTot         float64 `json:"dKtot"`
	DeltaW        float64 `json:"delta_W"`
	DeltaWPoor    float64 `json:"delta_W_p"`
	DeltaWNonPoor float64 `json:"delta_W_r"`
	DCap          float64 `json:"dcap"`
	DCar          float64 `json:"dcar"`

	DWpcCurrency  float64 `json:"dWpc_currency"`
	DWTotCurrency float64 `json:"dWtot_currency"`
	Risk          float64 `json:"risk"`
	Resilience    float64 `json:"resilience"`
	RiskToAssets  float64 `json:"risk_to_assets"`
}

var resultColumns = []struct {
	name string
	get  func(r *Result) float64
}{
	{"pop", func(r *Result) float64 { return r.Pop }},
	{"gdp_pc_pp", func(r *Result) float64 { return r.GDPpcPP }},
	{"protection", func(r *Result) float64 { return r.Protection }},
	{"dK", func(r *Result) float64 { return r.DK }},
	{"dKtot", func(r *Result) float64 { return r.DKTot }},
	{"delta_W", func(r *Result) float64 { return r.DeltaW }},
	{"delta_W_p", func(r *Result) float64 { return r.DeltaWPoor }},
	{"delta_W_r", func(r *Result) float64 { return r.DeltaWNonPoor }},
	{"dcap", func(r *Result) float64 { return r.DCap }},
	{"dcar", func(r *Result) float64 { return r.DCar }},
	{"dWpc_currency", func(r *Result) float64 { return r.DWpcCurrency }},
	{"dWtot_currency", func(r *Result) float64 { return r.DWTotCurrency }},
	{"risk", func(r *Result) float64 { return r.Risk }},
	{"resilience", func(r *Result) float64 { return r.Resilience }},
	{"risk_to_assets", func(r *Result) float64 { return r.RiskToAssets }},
}

// ResultColumns lists the numeric output columns by their JSON names.
func ResultColumns() []string {
	out := make([]string, len(resultColumns))
	for i, c := range resultColumns {
		out[i] = c.name
	}
	return out
}

// Value returns the named output column.
func (r *Result) Value(column string) (float64, bool) {
	for _, c := range resultColumns {
		if c.name == column {
			return c.get(r), true
		}
	}
	return 0, false
}

func sortedKeys(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}
