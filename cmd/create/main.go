package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anrid/japan-resilience/pkg/config"
	"github.com/anrid/japan-resilience/pkg/stats"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
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
		sheet      string
		catalogURL string
		locations  = make(map[stats.Role]*string)
		patterns   = make(map[stats.Role]*string)
	)

	rootCmd := &cobra.Command{
		Use:           "create",
		Short:         "Build the input database for the resilience engine.",
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

			sources := cfg.Sources()
			for _, r := range stats.Roles() {
				if *locations[r] != "" {
					sources = append(sources, &stats.File{URL: *locations[r], Title: string(r), Role: r, Sheet: sheet})
				}
			}

			if catalogURL == "" && cfg.Catalog != nil {
				catalogURL = cfg.Catalog.URL
				for r, p := range cfg.Catalog.Patterns {
					if *patterns[r] == "" {
						*patterns[r] = p
					}
				}
			}
			if catalogURL != "" {
				found, err := discover(catalogURL, patterns)
				if err != nil {
					return err
				}
				sources = append(sources, found...)
			}
			if len(sources) == 0 {
				return fmt.Errorf("no inputs given; pass --%s or a config file with inputs", stats.RoleUnits)
			}

			db, found, err := stats.LoadIfExists(cfg.Database)
			if err != nil {
				return err
			}
			if !found {
				db = stats.NewDatabase()
			}

			for _, f := range sources {
				log.Info("Adding source", "role", f.Role, "url", f.URL, "sheet", f.Sheet)
				if err := db.AddSource(f); err != nil {
					return err
				}
			}

			// Parse once so a broken table fails here rather than in show.
			in, err := stats.ReadInputs(db)
			if err != nil {
				return err
			}
			log.Info("Inputs parsed", "units", len(in.Units), "hazards", len(in.Hazards), "exposure", len(in.Exposure))

			if err := db.Save(cfg.Database); err != nil {
				return fmt.Errorf("could not save database: %w", err)
			}
			log.Info("Saved database", "path", cfg.Database)

			return db.Info()
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML run configuration")
	flags.StringVar(&dbFile, "db", "", fmt.Sprintf("database path (default %s)", config.DefaultDatabase))
	flags.BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")
	flags.StringVar(&sheet, "sheet", "", "sheet to read from the workbooks given on the command line (default: first sheet)")
	flags.StringVar(&catalogURL, "catalog", "", "HTML index page to discover workbooks on")
	for _, r := range stats.Roles() {
		locations[r] = flags.String(string(r), "", fmt.Sprintf("path or URL of the %s workbook", r))
		patterns[r] = flags.String(string(r)+"-pattern", "", fmt.Sprintf("catalog title pattern for the %s workbook", r))
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

func discover(url string, patterns map[stats.Role]*string) ([]*stats.File, error) {
	c := &stats.Catalog{RootURL: url}

	var all []string
	for _, r := range stats.Roles() {
		if *patterns[r] != "" {
			all = append(all, *patterns[r])
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("catalog %s: no title patterns given", url)
	}
	if err := c.FindTables(all...); err != nil {
		return nil, err
	}

	var files []*stats.File
	for _, r := range stats.Roles() {
		if *patterns[r] == "" {
			continue
		}
		f, err := c.FindFile(*patterns[r])
		if err != nil {
			return nil, err
		}
		f.Role = r
		files = append(files, f)
	}
	return files, nil
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
