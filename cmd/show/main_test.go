package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/anrid/japan-resilience/pkg/config"
	"github.com/anrid/japan-resilience/pkg/resilience"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	p := message.NewPrinter(language.English)
	require.Equal(t, "1,234,568", format(p, "dKtot", 1234567.8))
	require.Equal(t, "1.2500%", format(p, "risk", 0.0125))
	require.Equal(t, "0.7000", format(p, "resilience", 0.7))
	require.Equal(t, "-", format(p, "resilience", math.NaN()))
	require.Equal(t, "-", format(p, "risk", math.Inf(1)))
}

func TestPrintResults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)

	results := []resilience.Result{
		{Unit: "Aomori", Resilience: 0.5, Risk: 0.02, DKTot: 100, DWTotCurrency: 200},
		{Unit: "Hokkaido", Resilience: 0.8, Risk: 0.01, DKTot: 300, DWTotCurrency: math.NaN()},
	}

	var buf bytes.Buffer
	printResults(&buf, results, cfg)
	out := buf.String()

	require.Contains(t, out, "ranked by resilience")
	require.Less(t, strings.Index(out, "Hokkaido"), strings.Index(out, "Aomori"))
	require.Contains(t, out, "Expected annual asset losses: 400")
	require.Contains(t, out, "Expected annual welfare losses: 200")
	require.Contains(t, out, "High")
	require.Contains(t, out, "Low")
}

func TestPrintPolicies(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printPolicies(&buf, []resilience.PolicyDelta{{
		Unit:          "Aomori",
		Perturbation:  resilience.Perturbation{Field: resilience.FieldVP, Hazard: "flood", Increment: -0.01},
		DWTotCurrency: -1500,
		Resilience:    0.01,
	}})
	out := buf.String()

	require.Contains(t, out, "Policy Assessment (1 marginal changes)")
	require.Contains(t, out, "v_p[flood] -0.01")
	require.Contains(t, out, "-1,500")
}
