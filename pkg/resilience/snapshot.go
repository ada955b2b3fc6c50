package resilience

import (
	"fmt"
	"sort"
)

// Reference holds the values of a unit that stay fixed while its working
// inputs are perturbed.
type Reference struct {
	Protection        float64 `json:"protection"`
	ExposureBias      float64 `json:"pe"`
	VulnerabilityBias float64 `json:"pv"`
	GDPpcPPNat        float64 `json:"gdp_pc_pp_nat"`

	// VShared is the vulnerability of losses shared within the unit,
	// frozen from the non-poor vulnerability.
	VShared float64 `json:"v_s"`
}

// Snapshot is an immutable copy of the reference values of a unit table,
// taken before any broadcast or perturbation.
type Snapshot struct {
	refs map[string]Reference
}

// NewSnapshot freezes the reference values of units.
func NewSnapshot(units []Unit) (*Snapshot, error) {
	s := &Snapshot{refs: make(map[string]Reference, len(units))}
	for _, u := range units {
		if _, ok := s.refs[u.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate unit %q", ErrInvalidInput, u.ID)
		}
		s.refs[u.ID] = Reference{
			Protection:        u.Protection,
			ExposureBias:      u.ExposureBias,
			VulnerabilityBias: u.VulnerabilityBias,
			GDPpcPPNat:        u.GDPpcPPNat,
			VShared:           u.VR,
		}
	}
	return s, nil
}

// Lookup returns a copy of the reference values of unit id.
func (s *Snapshot) Lookup(id string) (Reference, bool) {
	r, ok := s.refs[id]
	return r, ok
}

func (s *Snapshot) mustLookup(id string) (Reference, error) {
	r, ok := s.refs[id]
	if !ok {
		return Reference{}, fmt.Errorf("%w: %s", ErrMissingReference, id)
	}
	return r, nil
}

// Units lists the unit ids in the snapshot, sorted.
func (s *Snapshot) Units() []string {
	out := make([]string, 0, len(s.refs))
	for id := range s.refs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
