// Package automation runs scripted batches of rig experiments.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/driver"
	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one rig run. Drivers sets a named constant on every
// driver of the rig.
type ScenarioStep struct {
	Rig      string             `yaml:"rig"`
	Duration float64            `yaml:"duration"`
	FPS      int                `yaml:"fps"`
	Drivers  map[string]float64 `yaml:"drivers"`
	SaveAs   string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// config resolves the step's rig and applies its overrides.
func (s ScenarioStep) config(registry *experiment.Registry) (*config.Config, error) {
	cfg, err := registry.Load(s.Rig)
	if err != nil {
		return nil, err
	}
	if s.Duration > 0 {
		cfg.Engine.Duration = s.Duration
	}
	if s.FPS > 0 {
		cfg.Engine.FPS = s.FPS
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}

	fields := make([]string, 0, len(s.Drivers))
	for f := range s.Drivers {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		apply, err := experiment.DriverField(f)
		if err != nil {
			return nil, err
		}
		apply(cfg, s.Drivers[f])
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Results of the steps that
// completed are returned with the first error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))
	log := diag.Logger()

	for i, step := range scenario.Steps {
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "rig", step.Rig)

		cfg, err := step.config(registry)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		rig, err := config.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		exp := experiment.New(rig)
		for _, m := range registry.DefaultMetrics(cfg) {
			exp.AddMetric(m)
		}
		result, err := exp.Run(ctx, cfg.Frames(), cfg.Dt())
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	step := (hi - lo) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// MonteCarloConfig perturbs one driver constant around its authored value.
// Perturbation is relative: 0.2 draws values within ±20%.
type MonteCarloConfig struct {
	Rig          string
	Field        string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial.
type MonteCarloResult struct {
	TrialID   int
	Value     float64
	Amplitude float64
	Stable    bool
}

// RunMonteCarlo executes the trials concurrently. A trial is stable when
// every frame was free of diagnostics and within the deformation limit.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.NumTrials)
	}
	apply, err := experiment.DriverField(cfg.Field)
	if err != nil {
		return nil, err
	}
	base, err := registry.Load(cfg.Rig)
	if err != nil {
		return nil, err
	}
	if len(base.Drivers) == 0 {
		return nil, fmt.Errorf("rig %s has no drivers", cfg.Rig)
	}
	settings, err := base.Drivers[0].Settings()
	if err != nil {
		return nil, err
	}
	center := driver.New(base.Drivers[0].Name, settings).GetParams()[cfg.Field]

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	values := make([]float64, cfg.NumTrials)
	for i := range values {
		values[i] = center * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
	}

	sweep := &experiment.Sweep{
		Build: func() (*config.Config, error) {
			return registry.Load(cfg.Rig)
		},
		Apply:  apply,
		Values: values,
	}
	runs, err := sweep.Run(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:   i,
			Value:     values[i],
			Amplitude: r.Metrics["amplitude"],
			Stable:    r.Metrics["stability"] == 1,
		}
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
