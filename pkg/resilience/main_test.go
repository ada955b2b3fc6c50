package resilience

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// testUnit is the reference scenario used across the package tests.
func testUnit(id string) Unit {
	return Unit{
		ID:          id,
		Pop:         1_000_000,
		GDPpcPP:     1000,
		GDPpcPPNat:  1000,
		PovHead:     0.3,
		ShareP:      0.15,
		IncomeElast: 1.5,
		AvgProdK:    0.25,
		TRebuildK:   2,
		Rho:         0.05,
		Protection:  10,
		SocialP:     0.2,
		SocialR:     0.1,
		SigmaP:      0.1,
		SigmaR:      0.1,
		Fap:         0.5,
		Far:         0.3,
		VP:          0.4,
		VR:          0.2,
	}
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(&Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options:   opts,
		Workers:   2,
		ChunkSize: 3,
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func requireFloatEqual(t *testing.T, a, b float64) {
	t.Helper()
	require.InDelta(t, a, b, 1e-9)
}

func mustCompute(t *testing.T, e *Engine, in Inputs) []Result {
	t.Helper()
	res, err := e.Compute(context.Background(), in, nil)
	require.NoError(t, err)
	return res
}
