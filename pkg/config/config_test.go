package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anrid/japan-resilience/pkg/resilience"
	"github.com/anrid/japan-resilience/pkg/stats"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "resilience.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_FileNotExist(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultDatabase, c.Database)
	require.Equal(t, defaultOutputs, c.Outputs)
	require.Empty(t, c.Policies)
}

func TestLoad_ValidFile(t *testing.T) {
	t.Parallel()

	p := writeConfig(t, `
database: /tmp/test-db.json
inputs:
  - role: units
    location: data/units.xlsx
    sheet: "2020"
  - role: exposure
    location: https://example.com/exposure.xlsx
    title: Flood exposure
model:
  nat_buyout: true
  kind: exante
  workers: 4
policies:
  - field: v_p
    increment: -0.01
  - field: fap
    hazard: flood
    increment: -0.05
bounds:
  v_p:
    min: 0
    max: 1
outputs: [resilience, risk]
tiers: [low, medium, high]
`)
	c, err := Load(p)
	require.NoError(t, err)

	require.Equal(t, "/tmp/test-db.json", c.Database)
	require.True(t, c.Model.NatBuyout)
	require.False(t, c.Model.Destitution)
	require.Equal(t, resilience.KindExante, c.Model.Kind)
	require.Equal(t, 4, c.Model.Workers)
	require.Equal(t, []string{"resilience", "risk"}, c.Outputs)
	require.Equal(t, []string{"low", "medium", "high"}, c.Tiers)

	require.Equal(t, []resilience.Perturbation{
		{Field: resilience.FieldVP, Increment: -0.01},
		{Field: resilience.FieldFap, Hazard: "flood", Increment: -0.05},
	}, c.Policies)

	bounds, err := c.FieldBounds()
	require.NoError(t, err)
	require.Len(t, bounds, 1)
	r := bounds[resilience.FieldVP]
	require.NotNil(t, r.Min)
	require.NotNil(t, r.Max)
	require.Equal(t, 0.0, *r.Min)
	require.Equal(t, 1.0, *r.Max)

	files := c.Sources()
	require.Len(t, files, 2)
	require.Equal(t, stats.RoleUnits, files[0].Role)
	require.Equal(t, "units", files[0].Title)
	require.Equal(t, "2020", files[0].Sheet)
	require.Equal(t, "Flood exposure", files[1].Title)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "inputs: [unterminated"},
		{name: "unknown role", body: "inputs:\n  - role: weather\n    location: x.xlsx\n"},
		{name: "missing location", body: "inputs:\n  - role: units\n"},
		{name: "unknown output", body: "outputs: [happiness]\n"},
		{name: "unknown bounds field", body: "bounds:\n  colour:\n    min: 0\n"},
		{name: "inverted bounds", body: "bounds:\n  fap:\n    min: 1\n    max: 0\n"},
		{name: "unknown policy field", body: "policies:\n  - field: colour\n    increment: 1\n"},
		{name: "zero increment", body: "policies:\n  - field: fap\n"},
		{name: "negative workers", body: "model:\n  workers: -1\n"},
		{name: "catalog without url", body: "catalog:\n  patterns:\n    units: baseline\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}
