// Package config loads the YAML run configuration shared by the create and
// show commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/anrid/japan-resilience/pkg/resilience"
	"github.com/anrid/japan-resilience/pkg/stats"
	"gopkg.in/yaml.v3"
)

const DefaultDatabase = "/tmp/japan-resilience.json"

var defaultOutputs = []string{"resilience", "risk", "risk_to_assets", "dWtot_currency", "dKtot"}

type Config struct {
	// Database is the JSON database written by create and read by show.
	Database string  `yaml:"database"`
	Inputs   []Input `yaml:"inputs"`
	// Catalog discovers inputs on an HTML index page instead of listing them.
	Catalog *Catalog `yaml:"catalog,omitempty"`

	Model    Model                       `yaml:"model"`
	Policies []resilience.Perturbation   `yaml:"policies"`
	Bounds   map[string]resilience.Range `yaml:"bounds"`

	// Outputs are the result columns reported, in order.
	Outputs []string `yaml:"outputs"`
	// Tiers labels the tertiles of resilience and risk.
	Tiers []string `yaml:"tiers"`
}

// Input is a workbook holding one of the input tables.
type Input struct {
	Role     stats.Role `yaml:"role"`
	Location string     `yaml:"location"`
	Title    string     `yaml:"title,omitempty"`
	Sheet    string     `yaml:"sheet,omitempty"`
}

// Catalog maps each role to a title pattern on the index page at URL.
type Catalog struct {
	URL      string                `yaml:"url"`
	Patterns map[stats.Role]string `yaml:"patterns"`
}

type Model struct {
	resilience.Options `yaml:",inline"`

	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := new(Config)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("unmarshal %s: %w", path, err)
			}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if len(c.Outputs) == 0 {
		c.Outputs = defaultOutputs
	}

	known := make(map[string]bool)
	for _, col := range resilience.ResultColumns() {
		known[col] = true
	}
	for _, o := range c.Outputs {
		if !known[o] {
			return fmt.Errorf("unknown output column %q", o)
		}
	}

	roles := make(map[stats.Role]bool)
	for _, r := range stats.Roles() {
		roles[r] = true
	}
	for _, in := range c.Inputs {
		if !roles[in.Role] {
			return fmt.Errorf("input %q: unknown role %q", in.Location, in.Role)
		}
		if in.Location == "" {
			return fmt.Errorf("input for role %q: location is required", in.Role)
		}
	}
	if c.Catalog != nil {
		if c.Catalog.URL == "" {
			return errors.New("catalog url is required")
		}
		for r := range c.Catalog.Patterns {
			if !roles[r] {
				return fmt.Errorf("catalog: unknown role %q", r)
			}
		}
	}

	if c.Model.Workers < 0 || c.Model.ChunkSize < 0 {
		return errors.New("model workers and chunk_size must be non-negative")
	}
	for _, p := range c.Policies {
		if p.Increment == 0 {
			return fmt.Errorf("policy %s: increment must be non-zero", p)
		}
	}
	if _, err := c.FieldBounds(); err != nil {
		return err
	}
	return nil
}

// FieldBounds converts Bounds into typed engine bounds.
func (c *Config) FieldBounds() (resilience.Bounds, error) {
	out := make(resilience.Bounds, len(c.Bounds))
	for name, r := range c.Bounds {
		f, err := resilience.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return nil, fmt.Errorf("bounds %s: min %g is above max %g", name, *r.Min, *r.Max)
		}
		out[f] = r
	}
	return out, nil
}

// Sources lists the configured inputs as database files.
func (c *Config) Sources() []*stats.File {
	var files []*stats.File
	for _, in := range c.Inputs {
		title := in.Title
		if title == "" {
			title = string(in.Role)
		}
		files = append(files, &stats.File{
			URL:   in.Location,
			Title: title,
			Role:  in.Role,
			Sheet: in.Sheet,
		})
	}
	return files
}
