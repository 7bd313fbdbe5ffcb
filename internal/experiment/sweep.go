package experiment

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
)

// Sweep runs one independent rig per value concurrently. Each run builds a
// fresh config, lets apply set the swept value, and records default
// metrics for the configured duration. A Build error fails that run.
type Sweep struct {
	Build  func() (*config.Config, error)
	Apply  func(cfg *config.Config, v float64)
	Values []float64
}

func (s *Sweep) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(s.Values))
	errs := make([]error, len(s.Values))

	var wg sync.WaitGroup
	for i, v := range s.Values {
		wg.Add(1)
		go func(idx int, v float64) {
			defer wg.Done()

			cfg, err := s.Build()
			if err != nil {
				errs[idx] = err
				return
			}
			s.Apply(cfg, v)
			rig, err := config.Build(cfg)
			if err != nil {
				errs[idx] = err
				return
			}
			exp := New(rig)
			for _, m := range metrics.Defaults(cfg.Engine.MagnitudeLimit) {
				exp.AddMetric(m)
			}
			results[idx], errs[idx] = exp.Run(ctx, cfg.Frames(), cfg.Dt())
		}(i, v)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// SweepFields lists the driver constants DriverField accepts.
var SweepFields = []string{"gravity", "length", "frequency", "angle_damping", "length_damping"}

// DriverField returns an Apply that sets a named constant on every driver.
func DriverField(field string) (func(*config.Config, float64), error) {
	if !slices.Contains(SweepFields, field) {
		return nil, fmt.Errorf("unknown field: %s", field)
	}
	return func(cfg *config.Config, v float64) {
		for i := range cfg.Drivers {
			val := v
			d := &cfg.Drivers[i]
			switch field {
			case "gravity":
				d.Gravity = &val
			case "length":
				d.Length = &val
			case "frequency":
				d.Frequency = &val
			case "angle_damping":
				d.AngleDamping = &val
			case "length_damping":
				d.LengthDamping = &val
			}
		}
	}, nil
}
