package stats

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anrid/japan-resilience/pkg/resilience"
)

var idColumns = []string{"province", "prefecture", "unit", "id"}

func mustTrim(v string) string {
	return strings.Trim(v, " \n\t\r")
}

// parseValue reads a numeric cell. Empty cells and "-" are missing.
func parseValue(v string) (value float64, ok bool, err error) {
	v = strings.ReplaceAll(mustTrim(v), ",", "")
	if v == "" || v == "-" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("could not parse '%s' into float64", v)
	}
	return f, true, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return mustTrim(row[i])
}

// header locates the first row naming a unit id column and returns the row
// index and its column positions, keyed by lower-case name.
func header(rows [][]string) (start int, cols map[string]int, err error) {
	for i, row := range rows {
		cols = make(map[string]int)
		for j, h := range row {
			h = strings.ToLower(strings.TrimPrefix(mustTrim(h), "\ufeff"))
			if h != "" {
				if _, dup := cols[h]; !dup {
					cols[h] = j
				}
			}
		}
		for _, id := range idColumns {
			if j, ok := cols[id]; ok {
				cols["\x00id"] = j
				return i, cols, nil
			}
		}
	}
	return 0, nil, fmt.Errorf("%w: no header row with a unit column (%s)", resilience.ErrInvalidInput, strings.Join(idColumns, ", "))
}

// fieldColumns maps header columns onto unit fields, skipping the others.
func fieldColumns(cols map[string]int, skip ...string) map[resilience.Field]int {
	out := make(map[resilience.Field]int)
	for name, j := range cols {
		if strings.HasPrefix(name, "\x00") || contains(skip, name) || contains(idColumns, name) {
			continue
		}
		f, err := resilience.ParseField(name)
		if err != nil {
			slog.Debug("ignoring column", "column", name)
			continue
		}
		out[f] = j
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ParseUnits reads the baseline unit table. The table starts at the header
// row and ends at the first row without a unit id.
func ParseUnits(rows [][]string) ([]resilience.Unit, error) {
	start, cols, err := header(rows)
	if err != nil {
		return nil, err
	}
	fields := fieldColumns(cols)
	for _, f := range resilience.Fields() {
		if _, ok := fields[f]; f.Required() && !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", resilience.ErrInvalidInput, f)
		}
	}

	seen := make(map[string]bool)
	var units []resilience.Unit
	for i := start + 1; i < len(rows); i++ {
		id := cell(rows[i], cols["\x00id"])
		if id == "" {
			break
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate unit %q", resilience.ErrInvalidInput, id)
		}
		seen[id] = true

		u := resilience.Unit{ID: id}
		for f, j := range fields {
			v, ok, err := parseValue(cell(rows[i], j))
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", i+1, f, err)
			}
			if !ok && f.Required() {
				return nil, fmt.Errorf("%w: row %d: %s is required for %s", resilience.ErrInvalidInput, i+1, f, id)
			}
			f.Set(&u, v)
		}
		units = append(units, u)
	}
	return units, nil
}

// ParseHazards reads the (unit, hazard) override table. Missing cells do not
// override the unit value.
func ParseHazards(rows [][]string) ([]resilience.HazardInfo, error) {
	start, cols, err := header(rows)
	if err != nil {
		return nil, err
	}
	hz, ok := cols["hazard"]
	if !ok {
		return nil, fmt.Errorf("%w: missing required column: hazard", resilience.ErrInvalidInput)
	}
	fields := fieldColumns(cols, "hazard")

	var infos []resilience.HazardInfo
	for i := start + 1; i < len(rows); i++ {
		id := cell(rows[i], cols["\x00id"])
		if id == "" {
			break
		}
		h := resilience.HazardInfo{Unit: id, Hazard: cell(rows[i], hz)}
		for f, j := range fields {
			v, ok, err := parseValue(cell(rows[i], j))
			if err != nil {
				return nil, fmt.Errorf("row %d, %s: %w", i+1, f, err)
			}
			if !ok {
				continue
			}
			if h.Overrides == nil {
				h.Overrides = make(map[resilience.Field]float64)
			}
			h.Overrides[f] = v
		}
		infos = append(infos, h)
	}
	return infos, nil
}

// ParseExposure reads the exposure-ratio table: one column per return period.
func ParseExposure(rows [][]string) (resilience.ExposureRatios, error) {
	start, cols, err := header(rows)
	if err != nil {
		return nil, err
	}
	rps := make(map[float64]int)
	for name, j := range cols {
		rp, ok, err := parseValue(name)
		if err != nil || !ok {
			continue
		}
		if rp <= 0 {
			return nil, fmt.Errorf("%w: return period %g must be positive", resilience.ErrInvalidInput, rp)
		}
		rps[rp] = j
	}
	if len(rps) == 0 {
		return nil, fmt.Errorf("%w: exposure table has no return-period columns", resilience.ErrInvalidInput)
	}

	out := make(resilience.ExposureRatios)
	for i := start + 1; i < len(rows); i++ {
		id := cell(rows[i], cols["\x00id"])
		if id == "" {
			break
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("%w: duplicate unit %q", resilience.ErrInvalidInput, id)
		}
		byRP := make(map[float64]float64, len(rps))
		for rp, j := range rps {
			v, ok, err := parseValue(cell(rows[i], j))
			if err != nil {
				return nil, fmt.Errorf("row %d, rp %g: %w", i+1, rp, err)
			}
			if ok {
				byRP[rp] = v
			}
		}
		out[id] = byRP
	}
	return out, nil
}

func extractRows(f *File) ([][]string, error) {
	var rows [][]string
	err := ExtractDataFromFile(f, func(r []string) {
		rows = append(rows, r)
	})
	return rows, err
}

// ReadInputs parses the database sources into pipeline inputs. The unit
// table is required; hazard and exposure tables are optional.
func ReadInputs(db *Database) (resilience.Inputs, error) {
	var in resilience.Inputs

	f, found := db.GetTableFile(RoleUnits)
	if !found {
		return in, fmt.Errorf("%w: database has no %s table", resilience.ErrInvalidInput, RoleUnits)
	}
	rows, err := extractRows(f)
	if err != nil {
		return in, err
	}
	if in.Units, err = ParseUnits(rows); err != nil {
		return in, fmt.Errorf("%s: %w", f.Title, err)
	}

	if f, found := db.GetTableFile(RoleHazards); found {
		rows, err := extractRows(f)
		if err != nil {
			return in, err
		}
		if in.Hazards, err = ParseHazards(rows); err != nil {
			return in, fmt.Errorf("%s: %w", f.Title, err)
		}
	}

	if f, found := db.GetTableFile(RoleExposure); found {
		rows, err := extractRows(f)
		if err != nil {
			return in, err
		}
		if in.Exposure, err = ParseExposure(rows); err != nil {
			return in, fmt.Errorf("%s: %w", f.Title, err)
		}
	}

	slog.Debug("read inputs", "units", len(in.Units), "hazards", len(in.Hazards), "exposure", len(in.Exposure))
	return in, nil
}
