package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
)

const (
	defaultWorkers   = 8
	defaultChunkSize = 256
)

// Config configures an Engine.
type Config struct {
	Logger  *slog.Logger
	Options Options

	// Workers bounds the goroutines computing row losses; ChunkSize is the
	// number of cube rows per task.
	Workers   int
	ChunkSize int
}

// Validate checks required fields and fills defaults for zero values.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if err := c.Options.validate(); err != nil {
		return err
	}
	if c.Workers < 0 || c.ChunkSize < 0 {
		return errors.New("workers and chunk size must be non-negative")
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	return nil
}

// Engine runs the resilience pipeline. It is safe for concurrent use; every
// call to Compute works on its own copy of the inputs.
type Engine struct {
	cfg *Config

	lossPool pond.ResultPool[[]Loss]
}

// NewEngine validates cfg and starts the loss worker pool.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		lossPool: pond.NewResultPool[[]Loss](cfg.Workers),
	}, nil
}

// Close waits for running tasks and releases the worker pool.
func (e *Engine) Close() {
	e.lossPool.StopAndWait()
}

// Compute runs the whole pipeline on in. When ref is nil the reference values
// are frozen from in.Units first; sensitivity runs pass the baseline snapshot
// instead.
func (e *Engine) Compute(ctx context.Context, in Inputs, ref *Snapshot) ([]Result, error) {
	start := time.Now()
	log := e.cfg.Logger

	in = in.Clone()
	if ref == nil {
		var err error
		ref, err = NewSnapshot(in.Units)
		if err != nil {
			return nil, err
		}
	}

	cube, err := NewCube(in.Units)
	if err != nil {
		return nil, err
	}
	cube, err = BroadcastHazards(cube, in.Hazards)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast hazards: %w", err)
	}
	if len(in.Exposure) > 0 {
		ratios := InterpolateExposure(in.Exposure, protectionLevels(in.Units, ref))
		cube, err = BroadcastReturnPeriods(cube, ratios)
		if err != nil {
			return nil, fmt.Errorf("failed to broadcast return periods: %w", err)
		}
	}
	log.Debug("expanded cube", "units", len(in.Units), "rows", cube.Len(), "hazard", cube.HasHazard, "rp", cube.HasRP)

	losses, err := e.computeLosses(ctx, cube, ref)
	if err != nil {
		return nil, err
	}

	byHazard, err := AverageOverReturnPeriods(losses, cube.HasRP, ref)
	if err != nil {
		return nil, err
	}
	byUnit := SumOverHazards(byHazard, cube.HasHazard)

	results, err := Compose(byUnit, in.Units, ref)
	if err != nil {
		return nil, err
	}

	if dropped := len(in.Units) - len(results); dropped > 0 {
		log.Debug("units without hazard or exposure data", "count", dropped)
	}
	log.Debug("computed resilience", "units", len(results), "duration", time.Since(start))

	return results, nil
}

func (e *Engine) computeLosses(ctx context.Context, cube *Cube, ref *Snapshot) ([]Loss, error) {
	rows := cube.Rows()
	opts := e.cfg.Options

	group := e.lossPool.NewGroupContext(ctx)
	for lo := 0; lo < len(rows); lo += e.cfg.ChunkSize {
		hi := min(lo+e.cfg.ChunkSize, len(rows))
		chunk := rows[lo:hi]

		group.SubmitErr(func() ([]Loss, error) {
			out := make([]Loss, 0, len(chunk))
			for _, r := range chunk {
				rf, err := ref.mustLookup(r.Key.Unit)
				if err != nil {
					return nil, err
				}
				l, err := ComputeLoss(r, rf, opts)
				if err != nil {
					return nil, err
				}
				out = append(out, l)
			}
			return out, nil
		})
	}

	chunks, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to compute losses: %w", err)
	}

	losses := make([]Loss, 0, len(rows))
	for _, c := range chunks {
		losses = append(losses, c...)
	}
	return losses, nil
}

// protectionLevels lists the protection levels the exposure table must cover.
func protectionLevels(units []Unit, ref *Snapshot) []float64 {
	seen := make(map[float64]bool)
	for _, u := range units {
		seen[u.Protection] = true
		if r, ok := ref.Lookup(u.ID); ok {
			seen[r.Protection] = true
		}
	}
	return sortedKeys(seen)
}
