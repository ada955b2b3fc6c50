package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/anrid/japan-resilience/pkg/config"
	"github.com/anrid/japan-resilience/pkg/resilience"
	"github.com/anrid/japan-resilience/pkg/stats"
	"github.com/davecgh/go-spew/spew"
	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	os.Exit(int(Run()))
}

func Run() ExitCode {
	var (
		configFile string
		dbFile     string
		verbose    bool
		dump       bool
		asJSON     bool
		noPolicies bool
	)

	rootCmd := &cobra.Command{
		Use:           "show",
		Short:         "Compute risk and socio-economic resilience per prefecture.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)
			slog.SetDefault(log)

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if dbFile != "" {
				cfg.Database = dbFile
			}
			if noPolicies {
				cfg.Policies = nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if asJSON {
				return showJSON(ctx, log, cfg)
			}
			return show(ctx, log, cfg, cmd.OutOrStdout(), dump)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML run configuration")
	flags.StringVar(&dbFile, "db", "", fmt.Sprintf("database path (default %s)", config.DefaultDatabase))
	flags.BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")
	flags.BoolVar(&dump, "dump", false, "dump the raw result rows")
	flags.BoolVar(&asJSON, "json", false, "print results and policy deltas as JSON instead of tables")
	flags.BoolVar(&noPolicies, "no-policies", false, "skip the policy assessment")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

func load(log *slog.Logger, cfg *config.Config) (resilience.Inputs, *resilience.Engine, error) {
	db, found, err := stats.LoadIfExists(cfg.Database)
	if err != nil {
		return resilience.Inputs{}, nil, err
	}
	if !found {
		return resilience.Inputs{}, nil, errors.New("no database found, run the create command in `cmd/create` first")
	}
	if err := db.Info(); err != nil {
		return resilience.Inputs{}, nil, err
	}

	in, err := stats.ReadInputs(db)
	if err != nil {
		return resilience.Inputs{}, nil, err
	}

	engine, err := resilience.NewEngine(&resilience.Config{
		Logger:    log,
		Options:   cfg.Model.Options,
		Workers:   cfg.Model.Workers,
		ChunkSize: cfg.Model.ChunkSize,
	})
	if err != nil {
		return resilience.Inputs{}, nil, err
	}
	return in, engine, nil
}

func showJSON(ctx context.Context, log *slog.Logger, cfg *config.Config) error {
	in, engine, err := load(log, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Compute(ctx, in, nil)
	if err != nil {
		return err
	}
	out := struct {
		Results  []resilience.Result      `json:"results"`
		Policies []resilience.PolicyDelta `json:"policies,omitempty"`
	}{Results: results}

	if len(cfg.Policies) > 0 {
		bounds, err := cfg.FieldBounds()
		if err != nil {
			return err
		}
		if out.Policies, err = engine.AssessPolicies(ctx, in, cfg.Policies, bounds); err != nil {
			return err
		}
	}
	return stats.Dump(out)
}

func show(ctx context.Context, log *slog.Logger, cfg *config.Config, w io.Writer, dump bool) error {
	in, engine, err := load(log, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Compute(ctx, in, nil)
	if err != nil {
		return err
	}
	if dump {
		spew.Fdump(w, results)
	}
	printResults(w, results, cfg)

	if len(cfg.Policies) == 0 {
		return nil
	}
	bounds, err := cfg.FieldBounds()
	if err != nil {
		return err
	}
	deltas, err := engine.AssessPolicies(ctx, in, cfg.Policies, bounds)
	if err != nil {
		return err
	}
	if dump {
		spew.Fdump(w, deltas)
	}
	printPolicies(w, deltas)
	return nil
}

// column builds the ranked report lines of one output column.
func column(results []resilience.Result, name string) stats.Prefectures {
	var ps stats.Prefectures
	for i := range results {
		v, _ := results[i].Value(name)
		ps = append(ps, &stats.Prefecture{Stat: name, Name: results[i].Unit, Value: v})
	}
	return ps
}

func tiersOf(results []resilience.Result, name string, labels []string) map[string]string {
	values := make(map[string]float64, len(results))
	for i := range results {
		values[results[i].Unit], _ = results[i].Value(name)
	}
	return stats.MakeTiers(values, labels)
}

func printResults(w io.Writer, results []resilience.Result, cfg *config.Config) {
	p := message.NewPrinter(language.English)

	ranked := column(results, cfg.Outputs[0])
	ranked.Rank()

	byUnit := make(map[string]*resilience.Result, len(results))
	for i := range results {
		byUnit[results[i].Unit] = &results[i]
	}
	resilienceTiers := tiersOf(results, "resilience", cfg.Tiers)
	riskTiers := tiersOf(results, "risk", cfg.Tiers)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)

	header := []string{"#", "Prefecture"}
	header = append(header, cfg.Outputs...)
	header = append(header, "Resilience\ntier", "Risk\ntier")
	table.SetHeader(header)

	for i, e := range ranked {
		r := byUnit[e.Name]
		row := []string{fmt.Sprintf("%02d", i+1), e.Name}
		for _, o := range cfg.Outputs {
			v, _ := r.Value(o)
			row = append(row, format(p, o, v))
		}
		row = append(row, orDash(resilienceTiers[e.Name]), orDash(riskTiers[e.Name]))
		table.Append(row)
	}

	p.Fprintf(w, "\nRisk and Socio-Economic Resilience by Prefecture, ranked by %s\n\n", cfg.Outputs[0])
	table.Render()

	welfare := column(results, "dWtot_currency")
	assets := column(results, "dKtot")
	p.Fprintf(w, "\nExpected annual asset losses: %.f\n", assets.Total())
	p.Fprintf(w, "Expected annual welfare losses: %.f\n", welfare.Total())
}

func printPolicies(w io.Writer, deltas []resilience.PolicyDelta) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Prefecture", "Policy",
		"Δ dWtot\n(currency)", "Δ dKtot\n(currency)", "Δ risk", "Δ resilience",
	})

	for _, d := range deltas {
		table.Append([]string{
			d.Unit,
			p.Sprintf("%s %+g", d.Perturbation, d.Perturbation.Increment),
			format(p, "dWtot_currency", d.DWTotCurrency),
			format(p, "dKtot", d.DKTot),
			format(p, "risk", d.Risk),
			format(p, "resilience", d.Resilience),
		})
	}

	p.Fprintf(w, "\nPolicy Assessment (%d marginal changes)\n\n", len(deltas))
	table.Render()
}

func format(p *message.Printer, col string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	switch col {
	case "pop", "dKtot", "dWtot_currency", "gdp_pc_pp", "dWpc_currency":
		return p.Sprintf("%.f", v)
	case "risk", "risk_to_assets":
		return p.Sprintf("%.4f%%", v*100)
	}
	return p.Sprintf("%.4f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
