package stats

import (
	"math"
	"sort"
)

// Role identifies which input table a source file holds.
type Role string

const (
	RoleUnits    Role = "units"
	RoleHazards  Role = "hazards"
	RoleExposure Role = "exposure"
)

// Roles lists the input roles in pipeline order.
func Roles() []Role {
	return []Role{RoleUnits, RoleHazards, RoleExposure}
}

// Prefecture is one line of a ranked indicator report.
type Prefecture struct {
	Stat       string
	Name       string
	Value      float64
	PctOfTotal float64
	Tier       string
}

type Prefectures []*Prefecture

func (ps Prefectures) Find(name string) *Prefecture {
	for _, p := range ps {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Total sums the values of all prefectures, skipping missing ones.
func (ps Prefectures) Total() float64 {
	var total float64
	for _, p := range ps {
		if math.IsNaN(p.Value) {
			continue
		}
		total += p.Value
	}
	return total
}

// Rank fills PctOfTotal and sorts by value, largest first. Missing values
// sort last.
func (ps Prefectures) Rank() {
	total := ps.Total()
	for _, p := range ps {
		if total != 0 {
			p.PctOfTotal = p.Value / total
		}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if math.IsNaN(ps[j].Value) {
			return !math.IsNaN(ps[i].Value)
		}
		return ps[i].Value > ps[j].Value
	})
}
