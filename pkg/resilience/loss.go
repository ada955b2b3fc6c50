package resilience

import (
	"fmt"
	"math"
)

// Kind selects how poor exposure and vulnerability are obtained.
type Kind string

const (
	// KindExpost uses the observed poor/non-poor exposure and vulnerability.
	KindExpost Kind = "expost"
	// KindExante derives poor exposure and vulnerability from the non-poor
	// values and the frozen biases.
	KindExante Kind = "exante"
)

// Options toggles the optional terms of the loss model.
type Options struct {
	// NatBuyout removes the nationally pooled share of shared losses.
	NatBuyout bool `yaml:"nat_buyout" json:"nat_buyout"`
	// Destitution pins a share of the affected poor at the destitution level.
	Destitution bool `yaml:"destitution" json:"destitution"`
	Kind        Kind `yaml:"kind" json:"kind"`
}

func (o *Options) validate() error {
	switch o.Kind {
	case "":
		o.Kind = KindExpost
	case KindExpost, KindExante:
	default:
		return fmt.Errorf("unknown kind %q", o.Kind)
	}
	return nil
}

// MacroMultiplier links immediate consumption losses to their net present
// value over reconstruction.
func MacroMultiplier(avgProdK, rho, tRebuild float64) float64 {
	r := 3 / tRebuild
	return (avgProdK + r) / (rho + r)
}

// ComputeLoss computes capital and welfare losses of one cube row. It does not
// care whether the row belongs to a hazard or return-period dimension.
func ComputeLoss(r *Row, ref Reference, opts Options) (Loss, error) {
	u := r.Unit
	if err := u.Validate(); err != nil {
		return Loss{}, fmt.Errorf("%s: %w", describeKey(r.Key), err)
	}

	ph := u.PovHead
	cp := u.ShareP * u.GDPpcPP / ph
	cr := (1 - u.ShareP) * u.GDPpcPP / (1 - ph)

	fap, far := u.Fap, u.Far
	vp, vr := u.VP, u.VR
	if opts.Kind == KindExante {
		fap = math.Min(1, far*(1+ref.ExposureBias))
		vp = math.Min(1, vr*(1+ref.VulnerabilityBias))
	}

	// early-warning adjusted vulnerability
	vp *= 1 - u.Pi*u.Shewp
	vr *= 1 - u.Pi*u.Shewr
	vShared := ref.VShared * (1 - u.Pi*u.Shew)
	if opts.NatBuyout {
		vShared *= 1 - u.NatBuyout
	}

	mu := u.AvgProdK
	gamma := MacroMultiplier(mu, u.Rho, u.TRebuildK)

	// ex-post support: transfers and scale-up are independent chances of help
	totP := 1 - (1-u.SocialP)*(1-u.SigmaP)
	totR := 1 - (1-u.SocialR)*(1-u.SigmaR)

	nap := ph * fap
	nar := (1 - ph) * far
	nnp := ph * (1 - fap)
	nnr := (1 - ph) * (1 - far)

	kp := cp / mu
	kr := cr / mu

	dK := kp*vp*nap + kr*vr*nar

	dCurCnp := fap * vShared * totP * kp
	dCurCnr := far * vShared * totR * kr
	dCurCap := vp*(1-totP)*kp + dCurCnp
	dCurCar := vr*(1-totR)*kr + dCurCnr

	w := welfEvaluator{elast: u.IncomeElast, key: r.Key}

	wpreP := ph * w.at(cp/u.Rho)
	wpreR := (1 - ph) * w.at(cr/u.Rho)

	postCap := cp/u.Rho - gamma*dCurCap
	wpostAP := nap * w.at(postCap)
	if opts.Destitution && u.DestitutionShare > 0 {
		if u.DestitutionLevel <= 0 {
			return Loss{}, fmt.Errorf("%w: %s: dest_level must be positive with destitution", ErrDomain, describeKey(r.Key))
		}
		destitute := math.Min(postCap, u.DestitutionLevel/u.Rho)
		wpostAP = nap * ((1-u.DestitutionShare)*w.at(postCap) + u.DestitutionShare*w.at(destitute))
	}
	wpostP := wpostAP + nnp*w.at(cp/u.Rho-gamma*dCurCnp)
	wpostR := nar*w.at(cr/u.Rho-gamma*dCurCar) + nnr*w.at(cr/u.Rho-gamma*dCurCnr)
	if w.err != nil {
		return Loss{}, w.err
	}

	return Loss{
		Key:           r.Key,
		DK:            dK,
		DeltaW:        (wpreP - wpostP) + (wpreR - wpostR),
		DeltaWPoor:    wpreP - wpostP,
		DeltaWNonPoor: wpreR - wpostR,
		DCap:          dCurCap,
		DCar:          dCurCar,
	}, nil
}

// welfEvaluator keeps the first domain error so the welfare sums read like
// the formulas.
type welfEvaluator struct {
	elast float64
	key   Key
	err   error
}

func (w *welfEvaluator) at(c float64) float64 {
	if w.err != nil {
		return math.NaN()
	}
	v, err := Welf(c, w.elast)
	if err != nil {
		w.err = fmt.Errorf("%s: post-disaster consumption %g: %w", describeKey(w.key), c, err)
	}
	return v
}

func describeKey(k Key) string {
	s := k.Unit
	if k.Hazard != "" {
		s += "/" + k.Hazard
	}
	if k.RP != 0 {
		s += fmt.Sprintf("/rp%g", k.RP)
	}
	return s
}
