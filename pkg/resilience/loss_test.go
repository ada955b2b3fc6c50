package resilience

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func computeTestLoss(t *testing.T, u Unit, opts Options) (Loss, error) {
	t.Helper()
	ref, err := NewSnapshot([]Unit{u})
	require.NoError(t, err)
	r, _ := ref.Lookup(u.ID)
	return ComputeLoss(&Row{Key: Key{Unit: u.ID}, Unit: u}, r, opts)
}

func TestResilience_ComputeLoss(t *testing.T) {
	t.Parallel()

	u := testUnit("Aomori")
	l, err := computeTestLoss(t, u, Options{})
	require.NoError(t, err)

	// kp*vp*nap + kr*vr*nar with kp = cp/mu and kr = cr/mu
	cp := 0.15 * 1000 / 0.3
	cr := 0.85 * 1000 / 0.7
	requireFloatEqual(t, l.DK, cp/0.25*0.4*0.3*0.5+cr/0.25*0.2*0.7*0.3)

	require.Greater(t, l.DeltaW, 0.0)
	require.Greater(t, l.DeltaWPoor, 0.0)
	require.Greater(t, l.DeltaWNonPoor, 0.0)
	require.InDelta(t, l.DeltaW, l.DeltaWPoor+l.DeltaWNonPoor, 1e-15)
	require.Greater(t, l.DCap, 0.0)
	require.Greater(t, l.DCar, 0.0)
}

func TestResilience_ComputeLoss_NoExposure(t *testing.T) {
	t.Parallel()

	u := testUnit("Aomori")
	u.Fap, u.Far = 0, 0
	l, err := computeTestLoss(t, u, Options{})
	require.NoError(t, err)
	require.Equal(t, 0.0, l.DK)
	require.InDelta(t, 0, l.DeltaW, 1e-15)
}

func TestResilience_ComputeLoss_Support(t *testing.T) {
	t.Parallel()

	u := testUnit("Aomori")
	without, err := computeTestLoss(t, u, Options{})
	require.NoError(t, err)

	u.SocialP, u.SigmaP = 0.6, 0.5
	with, err := computeTestLoss(t, u, Options{})
	require.NoError(t, err)

	// support moves losses around without touching assets
	require.Equal(t, without.DK, with.DK)
	require.Less(t, with.DeltaWPoor, without.DeltaWPoor)
}

func TestResilience_ComputeLoss_Domain(t *testing.T) {
	t.Parallel()

	t.Run("non_positive_consumption", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.Rho = 1
		u.VP, u.VR = 1, 1
		u.SocialP, u.SigmaP = 0, 0
		_, err := computeTestLoss(t, u, Options{})
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("vulnerability_above_one", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.VP = 1.2
		_, err := computeTestLoss(t, u, Options{})
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("negative_elasticity", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.IncomeElast = -1
		_, err := computeTestLoss(t, u, Options{})
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("destitution_without_level", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.DestitutionShare = 0.5
		_, err := computeTestLoss(t, u, Options{Destitution: true})
		require.ErrorIs(t, err, ErrDomain)
	})
}

func TestResilience_ComputeLoss_Options(t *testing.T) {
	t.Parallel()

	base, err := computeTestLoss(t, testUnit("Aomori"), Options{})
	require.NoError(t, err)

	t.Run("nat_buyout", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.NatBuyout = 0.5
		l, err := computeTestLoss(t, u, Options{NatBuyout: true})
		require.NoError(t, err)
		require.Equal(t, base.DK, l.DK)
		require.Less(t, l.DeltaW, base.DeltaW)

		// the fraction is ignored unless the flag is set
		l, err = computeTestLoss(t, u, Options{})
		require.NoError(t, err)
		require.Equal(t, base.DeltaW, l.DeltaW)
	})

	t.Run("destitution", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.DestitutionShare = 0.5
		u.DestitutionLevel = 20
		l, err := computeTestLoss(t, u, Options{Destitution: true})
		require.NoError(t, err)
		require.Equal(t, base.DK, l.DK)
		require.Greater(t, l.DeltaWPoor, base.DeltaWPoor)
		require.Equal(t, base.DeltaWNonPoor, l.DeltaWNonPoor)
	})

	t.Run("exante_matches_expost_when_biases_agree", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.ExposureBias = 0.5/0.3 - 1
		u.VulnerabilityBias = 1
		l, err := computeTestLoss(t, u, Options{Kind: KindExante})
		require.NoError(t, err)
		require.InEpsilon(t, base.DK, l.DK, 1e-9)
		require.InEpsilon(t, base.DeltaW, l.DeltaW, 1e-9)
	})

	t.Run("early_warning", func(t *testing.T) {
		t.Parallel()

		u := testUnit("Aomori")
		u.Pi = 0.8
		u.Shewp, u.Shewr, u.Shew = 0.5, 0.5, 0.5
		l, err := computeTestLoss(t, u, Options{})
		require.NoError(t, err)
		requireFloatEqual(t, l.DK, base.DK*0.6)
	})
}

func TestResilience_MacroMultiplier(t *testing.T) {
	t.Parallel()

	// instant reconstruction: no lost income
	require.InDelta(t, 1, MacroMultiplier(0.25, 0.05, 1e-9), 1e-6)
	// never rebuilt: the income stream of the asset is lost forever
	require.InDelta(t, 5, MacroMultiplier(0.25, 0.05, 1e12), 1e-6)
	require.False(t, math.IsNaN(MacroMultiplier(0.25, 0.05, 3)))
}
