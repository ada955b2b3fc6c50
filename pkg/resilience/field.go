package resilience

import (
	"fmt"
	"strings"
)

// Field identifies a numeric input column of a Unit. It is used both to map
// table headers onto units and to address policy perturbations.
type Field int

const (
	FieldPop Field = iota
	FieldGDPpcPP
	FieldGDPpcPPNat
	FieldPovHead
	FieldShareP
	FieldIncomeElast
	FieldAvgProdK
	FieldTRebuildK
	FieldRho
	FieldProtection
	FieldSocialP
	FieldSocialR
	FieldSigmaP
	FieldSigmaR
	FieldFap
	FieldFar
	FieldVP
	FieldVR
	FieldPi
	FieldShewp
	FieldShewr
	FieldShew
	FieldExposureBias
	FieldVulnerabilityBias
	FieldNatBuyout
	FieldDestitutionShare
	FieldDestitutionLevel

	numFields
)

var fieldNames = [numFields]string{
	FieldPop:               "pop",
	FieldGDPpcPP:           "gdp_pc_pp",
	FieldGDPpcPPNat:        "gdp_pc_pp_nat",
	FieldPovHead:           "pov_head",
	FieldShareP:            "share1",
	FieldIncomeElast:       "income_elast",
	FieldAvgProdK:          "avg_prod_k",
	FieldTRebuildK:         "T_rebuild_K",
	FieldRho:               "rho",
	FieldProtection:        "protection",
	FieldSocialP:           "social_p",
	FieldSocialR:           "social_r",
	FieldSigmaP:            "sigma_p",
	FieldSigmaR:            "sigma_r",
	FieldFap:               "fap",
	FieldFar:               "far",
	FieldVP:                "v_p",
	FieldVR:                "v_r",
	FieldPi:                "pi",
	FieldShewp:             "shewp",
	FieldShewr:             "shewr",
	FieldShew:              "shew",
	FieldExposureBias:      "pe",
	FieldVulnerabilityBias: "pv",
	FieldNatBuyout:         "nat_buyout",
	FieldDestitutionShare:  "dest_share",
	FieldDestitutionLevel:  "dest_level",
}

// Fields returns every known field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		out = append(out, f)
	}
	return out
}

// ParseField resolves a column name. Matching is case-insensitive.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for f, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, name)
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// MarshalText lets fields appear as column names in JSON and YAML.
func (f Field) MarshalText() ([]byte, error) {
	if f < 0 || f >= numFields {
		return nil, fmt.Errorf("invalid field %d", int(f))
	}
	return []byte(fieldNames[f]), nil
}

func (f *Field) UnmarshalText(b []byte) error {
	v, err := ParseField(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Required reports whether a unit table must carry this column.
func (f Field) Required() bool {
	switch f {
	case FieldPop, FieldGDPpcPP, FieldGDPpcPPNat, FieldPovHead, FieldShareP,
		FieldIncomeElast, FieldAvgProdK, FieldTRebuildK, FieldRho, FieldProtection,
		FieldFap, FieldFar, FieldVP, FieldVR:
		return true
	}
	return false
}

// Reference reports whether the field is frozen into the Snapshot. Hazard
// overrides may not carry reference fields.
func (f Field) Reference() bool {
	switch f {
	case FieldProtection, FieldExposureBias, FieldVulnerabilityBias, FieldGDPpcPPNat:
		return true
	}
	return false
}

// Fraction reports whether the field is a share that must lie in [0, 1].
func (f Field) Fraction() bool {
	switch f {
	case FieldPovHead, FieldShareP, FieldSocialP, FieldSocialR, FieldSigmaP, FieldSigmaR,
		FieldFap, FieldFar, FieldVP, FieldVR, FieldPi, FieldShewp, FieldShewr, FieldShew,
		FieldNatBuyout, FieldDestitutionShare:
		return true
	}
	return false
}

func (f Field) ptr(u *Unit) *float64 {
	switch f {
	case FieldPop:
		return &u.Pop
	case FieldGDPpcPP:
		return &u.GDPpcPP
	case FieldGDPpcPPNat:
		return &u.GDPpcPPNat
	case FieldPovHead:
		return &u.PovHead
	case FieldShareP:
		return &u.ShareP
	case FieldIncomeElast:
		return &u.IncomeElast
	case FieldAvgProdK:
		return &u.AvgProdK
	case FieldTRebuildK:
		return &u.TRebuildK
	case FieldRho:
		return &u.Rho
	case FieldProtection:
		return &u.Protection
	case FieldSocialP:
		return &u.SocialP
	case FieldSocialR:
		return &u.SocialR
	case FieldSigmaP:
		return &u.SigmaP
	case FieldSigmaR:
		return &u.SigmaR
	case FieldFap:
		return &u.Fap
	case FieldFar:
		return &u.Far
	case FieldVP:
		return &u.VP
	case FieldVR:
		return &u.VR
	case FieldPi:
		return &u.Pi
	case FieldShewp:
		return &u.Shewp
	case FieldShewr:
		return &u.Shewr
	case FieldShew:
		return &u.Shew
	case FieldExposureBias:
		return &u.ExposureBias
	case FieldVulnerabilityBias:
		return &u.VulnerabilityBias
	case FieldNatBuyout:
		return &u.NatBuyout
	case FieldDestitutionShare:
		return &u.DestitutionShare
	case FieldDestitutionLevel:
		return &u.DestitutionLevel
	}
	panic(fmt.Sprintf("resilience: unknown field %d", int(f)))
}

// Get returns the value of f in u.
func (f Field) Get(u *Unit) float64 { return *f.ptr(u) }

// Set stores v into the f column of u.
func (f Field) Set(u *Unit, v float64) { *f.ptr(u) = v }
