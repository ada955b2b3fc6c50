package resilience

import (
	"fmt"
	"math"
)

// Compose converts per-unit expected capital and welfare losses into the
// output indicators.
//
// Welfare losses are expressed in currency through the derivative of welfare
// at the frozen national average consumption, then annualised by the
// protection level. Resilience compares the welfare cost of the capital loss
// borne one for one with the actual welfare loss.
func Compose(losses []Loss, units []Unit, ref *Snapshot) ([]Result, error) {
	byID := make(map[string]*Unit, len(units))
	for i := range units {
		byID[units[i].ID] = &units[i]
	}

	out := make([]Result, 0, len(losses))
	for _, l := range losses {
		u, ok := byID[l.Key.Unit]
		if !ok {
			return nil, fmt.Errorf("%w: no unit row for %q", ErrInvalidInput, l.Key.Unit)
		}
		r, err := ref.mustLookup(u.ID)
		if err != nil {
			return nil, err
		}

		deriv, err := welfDerivative(r.GDPpcPPNat/u.Rho, u.IncomeElast)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.ID, err)
		}

		dWpc := divide(divide(l.DeltaW, deriv), u.Protection)
		risk := divide(dWpc, u.GDPpcPP)
		res := divide(deriv*l.DK, l.DeltaW)

		out = append(out, Result{
			Unit:          u.ID,
			Pop:           u.Pop,
			GDPpcPP:       u.GDPpcPP,
			Protection:    u.Protection,
			DK:            l.DK,
			DKTot:         divide(l.DK*u.Pop, u.Protection),
			DeltaW:        l.DeltaW,
			DeltaWPoor:    l.DeltaWPoor,
			DeltaWNonPoor: l.DeltaWNonPoor,
			DCap:          l.DCap,
			DCar:          l.DCar,
			DWpcCurrency:  dWpc,
			DWTotCurrency: dWpc * u.Pop,
			Risk:          risk,
			Resilience:    res,
			RiskToAssets:  res * risk,
		})
	}
	return out, nil
}

// divide returns NaN instead of an infinity when b is zero.
func divide(a, b float64) float64 {
	if b == 0 || math.IsNaN(b) {
		return math.NaN()
	}
	return a / b
}
