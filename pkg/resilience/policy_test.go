package resilience

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func policyInputs() Inputs {
	return Inputs{
		Units: []Unit{testUnit("Aomori"), testUnit("Iwate")},
		Hazards: []HazardInfo{
			{Unit: "Aomori", Hazard: "flood", Overrides: map[Field]float64{FieldVP: 0.5}},
			{Unit: "Iwate", Hazard: "flood"},
			{Unit: "Iwate", Hazard: "earthquake"},
		},
		Exposure: ExposureRatios{
			"Aomori": {10: 1, 100: 1.4},
			"Iwate":  {10: 1, 100: 1.2},
		},
	}
}

func TestResilience_Perturbation_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pov_head", Perturbation{Field: FieldPovHead}.String())
	require.Equal(t, "v_p[flood]", Perturbation{Field: FieldVP, Hazard: "flood"}.String())
}

func TestResilience_AssessPolicies(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Options{})
	ctx := context.Background()

	t.Run("unit_field", func(t *testing.T) {
		t.Parallel()

		in := policyInputs()
		deltas, err := e.AssessPolicies(ctx, in, []Perturbation{
			{Field: FieldSocialP, Increment: 0.05},
		}, nil)
		require.NoError(t, err)
		require.Len(t, deltas, 2)
		require.Equal(t, "Aomori", deltas[0].Unit)
		for _, d := range deltas {
			// more transfers leave assets alone and lower welfare losses
			require.InDelta(t, 0, d.DKTot, 1e-6)
			require.Less(t, d.DWTotCurrency, 0.0)
			require.Greater(t, d.Resilience, 0.0)
		}

		// the caller's tables are not perturbed
		require.Equal(t, policyInputs(), in)
	})

	t.Run("hazard_field", func(t *testing.T) {
		t.Parallel()

		deltas, err := e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldVP, Hazard: "flood", Increment: -0.1},
		}, nil)
		require.NoError(t, err)
		require.Len(t, deltas, 2)
		for _, d := range deltas {
			require.Less(t, d.DKTot, 0.0)
			require.Less(t, d.DWTotCurrency, 0.0)
		}
	})

	t.Run("clipped_to_bounds", func(t *testing.T) {
		t.Parallel()

		one := 1.0
		_, err := e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldVP, Increment: 0.9},
		}, Bounds{FieldVP: {Max: &one}})
		require.NoError(t, err)

		_, err = e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldVP, Increment: 0.9},
		}, nil)
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("protection_threshold_stays_frozen", func(t *testing.T) {
		t.Parallel()

		// Raising protection to 100 would remove every event if the
		// aggregator read the working table.
		deltas, err := e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldProtection, Increment: 90},
		}, nil)
		require.NoError(t, err)
		require.Len(t, deltas, 2)
		for _, d := range deltas {
			require.False(t, math.IsNaN(d.DKTot))
			require.Less(t, d.DKTot, 0.0)
		}
	})

	t.Run("reference_field_per_hazard", func(t *testing.T) {
		t.Parallel()

		_, err := e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldProtection, Hazard: "flood", Increment: 1},
		}, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown_hazard", func(t *testing.T) {
		t.Parallel()

		_, err := e.AssessPolicies(ctx, policyInputs(), []Perturbation{
			{Field: FieldVP, Hazard: "volcano", Increment: 0.1},
		}, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestResilience_Snapshot(t *testing.T) {
	t.Parallel()

	u := testUnit("Aomori")
	u.ExposureBias = 0.2
	units := []Unit{u}
	ref, err := NewSnapshot(units)
	require.NoError(t, err)

	units[0].Protection = 500
	units[0].VR = 0.9

	r, ok := ref.Lookup("Aomori")
	require.True(t, ok)
	require.Equal(t, Reference{
		Protection:   10,
		ExposureBias: 0.2,
		GDPpcPPNat:   1000,
		VShared:      0.2,
	}, r)
	require.Equal(t, []string{"Aomori"}, ref.Units())

	_, ok = ref.Lookup("Iwate")
	require.False(t, ok)

	_, err = NewSnapshot([]Unit{u, u})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestResilience_Field(t *testing.T) {
	t.Parallel()

	for _, f := range Fields() {
		got, err := ParseField(f.String())
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	f, err := ParseField(" t_rebuild_k ")
	require.NoError(t, err)
	require.Equal(t, FieldTRebuildK, f)

	_, err = ParseField("province")
	require.ErrorIs(t, err, ErrInvalidInput)

	var u Unit
	FieldShareP.Set(&u, 0.25)
	require.Equal(t, 0.25, u.ShareP)
	require.Equal(t, 0.25, FieldShareP.Get(&u))

	b, err := FieldVP.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "v_p", string(b))
}
