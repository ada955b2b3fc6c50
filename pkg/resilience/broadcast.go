package resilience

import (
	"fmt"
	"math"
	"sort"
)

// Row is one line of the expanded cube: the working unit values for a single
// (unit, hazard, return period) combination.
type Row struct {
	Key  Key
	Unit Unit
}

// Cube is the unit table expanded over the optional hazard and return-period
// dimensions. Keys are unique and kept in sorted order.
type Cube struct {
	HasHazard bool
	HasRP     bool

	keys []Key
	rows map[Key]*Row
}

// NewCube builds the one-dimensional cube of a unit table.
func NewCube(units []Unit) (*Cube, error) {
	c := &Cube{rows: make(map[Key]*Row, len(units))}
	for _, u := range units {
		k := Key{Unit: u.ID}
		if _, ok := c.rows[k]; ok {
			return nil, fmt.Errorf("%w: duplicate unit %q", ErrInvalidInput, u.ID)
		}
		c.put(&Row{Key: k, Unit: u})
	}
	c.sort()
	return c, nil
}

func (c *Cube) put(r *Row) {
	if _, ok := c.rows[r.Key]; !ok {
		c.keys = append(c.keys, r.Key)
	}
	c.rows[r.Key] = r
}

func (c *Cube) sort() {
	sort.Slice(c.keys, func(i, j int) bool { return c.keys[i].less(c.keys[j]) })
}

// Len returns the number of rows.
func (c *Cube) Len() int { return len(c.keys) }

// Keys returns the row keys in sorted order.
func (c *Cube) Keys() []Key { return append([]Key(nil), c.keys...) }

// Row looks up a row by key.
func (c *Cube) Row(k Key) (*Row, bool) {
	r, ok := c.rows[k]
	return r, ok
}

// Rows returns the rows in key order.
func (c *Cube) Rows() []*Row {
	out := make([]*Row, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.rows[k]
	}
	return out
}

// BroadcastHazards replicates every row once per distinct hazard of infos and
// overlays the (unit, hazard) overrides. Pairs without hazard info are
// dropped. With no infos the cube is returned unchanged.
func BroadcastHazards(c *Cube, infos []HazardInfo) (*Cube, error) {
	if len(infos) == 0 {
		return c, nil
	}
	if c.HasHazard || c.HasRP {
		return nil, fmt.Errorf("%w: hazard broadcast must run on the unit table", ErrInvalidInput)
	}

	type pair struct{ unit, hazard string }
	byPair := make(map[pair]HazardInfo, len(infos))
	hazards := make(map[string]bool)
	for _, h := range infos {
		if h.Hazard == "" {
			return nil, fmt.Errorf("%w: hazard info for %q without hazard name", ErrInvalidInput, h.Unit)
		}
		p := pair{h.Unit, h.Hazard}
		if _, ok := byPair[p]; ok {
			return nil, fmt.Errorf("%w: duplicate hazard info %s/%s", ErrInvalidInput, h.Unit, h.Hazard)
		}
		for f := range h.Overrides {
			if f.Reference() {
				return nil, fmt.Errorf("%w: hazard info %s/%s overrides reference field %s", ErrInvalidInput, h.Unit, h.Hazard, f)
			}
		}
		byPair[p] = h
		hazards[h.Hazard] = true
	}

	out := &Cube{HasHazard: true, rows: make(map[Key]*Row, len(c.keys)*len(hazards))}
	for _, k := range c.keys {
		base := c.rows[k]
		for hz := range hazards {
			info, ok := byPair[pair{k.Unit, hz}]
			if !ok {
				continue
			}
			u := base.Unit
			for f, v := range info.Overrides {
				f.Set(&u, v)
			}
			out.put(&Row{Key: Key{Unit: k.Unit, Hazard: hz}, Unit: u})
		}
	}
	out.sort()
	return out, nil
}

// BroadcastReturnPeriods replicates every row once per return period of the
// unit's exposure ratios and scales fap and far by the ratio. Units without
// ratios are dropped. Scaled exposure is capped at the whole population. With
// no ratios the cube is returned unchanged.
func BroadcastReturnPeriods(c *Cube, ratios ExposureRatios) (*Cube, error) {
	if len(ratios) == 0 {
		return c, nil
	}
	if c.HasRP {
		return nil, fmt.Errorf("%w: cube already has a return-period dimension", ErrInvalidInput)
	}

	rps := ratios.ReturnPeriods()
	out := &Cube{HasHazard: c.HasHazard, HasRP: true, rows: make(map[Key]*Row, len(c.keys)*len(rps))}
	for _, k := range c.keys {
		byRP, ok := ratios[k.Unit]
		if !ok {
			continue
		}
		base := c.rows[k]
		for _, rp := range rps {
			ratio, ok := byRP[rp]
			if !ok {
				continue
			}
			u := base.Unit
			u.Fap = math.Min(1, u.Fap*ratio)
			u.Far = math.Min(1, u.Far*ratio)
			out.put(&Row{Key: Key{Unit: k.Unit, Hazard: k.Hazard, RP: rp}, Unit: u})
		}
	}
	out.sort()
	return out, nil
}
