// Package resilience computes expected asset and welfare losses from natural
// hazards per geographic unit, and derives risk and socio-economic resilience
// indicators from them.
//
// The pipeline expands a baseline unit table over hazards and return periods,
// computes losses line by line, averages them back over return periods and
// sums them over hazards before composing the final indicators.
package resilience

import (
	"fmt"
	"math"
)

// derivativeStep is the finite-difference step used to linearise welfare
// around national average consumption.
const derivativeStep = 1e-4

// Welf is the iso-elastic welfare function (c^(1-η) - 1) / (1-η), with ln(c)
// at η == 1.
func Welf(c, elast float64) (float64, error) {
	if !(c > 0) || elast < 0 || math.IsInf(c, 0) || math.IsNaN(elast) {
		return math.NaN(), fmt.Errorf("%w: welf(c=%g, elast=%g)", ErrDomain, c, elast)
	}
	if elast == 1 {
		return math.Log(c), nil
	}
	return (math.Pow(c, 1-elast) - 1) / (1 - elast), nil
}

// InvertWelf returns the consumption level that yields welfare u.
func InvertWelf(u, elast float64) (float64, error) {
	if elast < 0 || math.IsNaN(u) || math.IsNaN(elast) {
		return math.NaN(), fmt.Errorf("%w: invert_welf(u=%g, elast=%g)", ErrDomain, u, elast)
	}
	if elast == 1 {
		return math.Exp(u), nil
	}
	base := (1-elast)*u + 1
	if base <= 0 {
		return math.NaN(), fmt.Errorf("%w: invert_welf(u=%g, elast=%g)", ErrDomain, u, elast)
	}
	return math.Pow(base, 1/(1-elast)), nil
}

// WelfAll applies Welf elementwise over equal-length sequences.
func WelfAll(c, elast []float64) ([]float64, error) {
	return elementwise("welf", c, elast, Welf)
}

// InvertWelfAll applies InvertWelf elementwise over equal-length sequences.
func InvertWelfAll(u, elast []float64) ([]float64, error) {
	return elementwise("invert_welf", u, elast, InvertWelf)
}

func elementwise(name string, x, elast []float64, fn func(float64, float64) (float64, error)) ([]float64, error) {
	if len(x) != len(elast) {
		return nil, fmt.Errorf("%s: length mismatch %d != %d", name, len(x), len(elast))
	}
	out := make([]float64, len(x))
	for i := range x {
		v, err := fn(x[i], elast[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// welfDerivative is the symmetric finite difference of Welf at c.
func welfDerivative(c, elast float64) (float64, error) {
	hi, err := Welf(c+derivativeStep, elast)
	if err != nil {
		return math.NaN(), err
	}
	lo, err := Welf(c-derivativeStep, elast)
	if err != nil {
		return math.NaN(), err
	}
	return (hi - lo) / (2 * derivativeStep), nil
}
