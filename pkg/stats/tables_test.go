package stats

import (
	"testing"

	"github.com/anrid/japan-resilience/pkg/resilience"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	t.Parallel()

	units, err := ParseUnits(unitRows())
	require.NoError(t, err)
	require.Len(t, units, 2)

	h := units[0]
	require.Equal(t, "Hokkaido", h.ID)
	require.Equal(t, 5_250_000.0, h.Pop)
	require.Equal(t, 0.15, h.ShareP)
	require.Equal(t, 2.0, h.TRebuildK)
	require.Equal(t, 0.0, h.Pi)
	require.NoError(t, h.Validate())

	require.Equal(t, "Aomori", units[1].ID)
	require.Equal(t, 0.4, units[1].Pi)
	require.Equal(t, 20.0, units[1].Protection)

	t.Run("missing required column", func(t *testing.T) {
		t.Parallel()
		rows := [][]string{{"province", "pop"}, {"Hokkaido", "1"}}
		_, err := ParseUnits(rows)
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
		require.Contains(t, err.Error(), "missing required column")
	})

	t.Run("missing required value", func(t *testing.T) {
		t.Parallel()
		rows := unitRows()
		rows[3][2] = "-"
		_, err := ParseUnits(rows)
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})

	t.Run("duplicate unit", func(t *testing.T) {
		t.Parallel()
		rows := unitRows()
		rows[4][0] = "Hokkaido"
		_, err := ParseUnits(rows)
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})

	t.Run("bad number", func(t *testing.T) {
		t.Parallel()
		rows := unitRows()
		rows[3][1] = "lots"
		_, err := ParseUnits(rows)
		require.Error(t, err)
		require.Contains(t, err.Error(), "lots")
	})

	t.Run("byte order mark on header", func(t *testing.T) {
		t.Parallel()
		rows := unitRows()
		rows[2] = append([]string(nil), rows[2]...)
		rows[2][0] = "\ufeffProvince"
		units, err := ParseUnits(rows)
		require.NoError(t, err)
		require.Len(t, units, 2)
		require.Equal(t, "Hokkaido", units[0].ID)
	})

	t.Run("no header", func(t *testing.T) {
		t.Parallel()
		_, err := ParseUnits([][]string{{"a", "b"}})
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})
}

func TestParseHazards(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"Province", "Hazard", "fap", "v_p", "notes"},
		{"Hokkaido", "flood", "0.6", "", "river"},
		{"Hokkaido", "earthquake", "-", "0.5", ""},
		{"Aomori", "flood", "", "", ""},
	}
	infos, err := ParseHazards(rows)
	require.NoError(t, err)

	want := []resilience.HazardInfo{
		{Unit: "Hokkaido", Hazard: "flood", Overrides: map[resilience.Field]float64{resilience.FieldFap: 0.6}},
		{Unit: "Hokkaido", Hazard: "earthquake", Overrides: map[resilience.Field]float64{resilience.FieldVP: 0.5}},
		{Unit: "Aomori", Hazard: "flood"},
	}
	if diff := cmp.Diff(want, infos); diff != "" {
		t.Errorf("ParseHazards() mismatch (-want +got):\n%s", diff)
	}

	t.Run("missing hazard column", func(t *testing.T) {
		t.Parallel()
		_, err := ParseHazards([][]string{{"province", "fap"}, {"Hokkaido", "0.1"}})
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})
}

func TestParseExposure(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"unit", "name", "10", "50", "100"},
		{"Hokkaido", "北海道", "0.2", "0.5", "1"},
		{"Aomori", "青森", "", "0.4", "-"},
	}
	ratios, err := ParseExposure(rows)
	require.NoError(t, err)

	want := resilience.ExposureRatios{
		"Hokkaido": {10: 0.2, 50: 0.5, 100: 1},
		"Aomori":   {50: 0.4},
	}
	if diff := cmp.Diff(want, ratios); diff != "" {
		t.Errorf("ParseExposure() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []float64{10, 50, 100}, ratios.ReturnPeriods())

	t.Run("no return periods", func(t *testing.T) {
		t.Parallel()
		_, err := ParseExposure([][]string{{"unit", "name"}, {"Hokkaido", "x"}})
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})

	t.Run("non-positive return period", func(t *testing.T) {
		t.Parallel()
		_, err := ParseExposure([][]string{{"unit", "0", "10"}, {"Hokkaido", "0.1", "0.2"}})
		require.ErrorIs(t, err, resilience.ErrInvalidInput)
	})
}
