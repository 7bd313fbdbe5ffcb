package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/experiment"
)

const scenarioYAML = `name: damping
description: hair at two damping values
steps:
  - rig: hair
    duration: 0.5
    drivers:
      angle_damping: 0.2
    save_as: loose
  - rig: spring
    duration: 0.25
    fps: 40
    save_as: bouncy
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "damping" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "loose" || results[0].StepsTaken != 30 {
		t.Errorf("step 1: got %s with %d frames", results[0].Name, results[0].StepsTaken)
	}
	if results[1].Name != "bouncy" || results[1].StepsTaken != 10 {
		t.Errorf("step 2: got %s with %d frames", results[1].Name, results[1].StepsTaken)
	}
}

func TestRunScenarioStopsAtBadStep(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Rig: "hair", Duration: 0.1},
		{Rig: "hair", Drivers: map[string]float64{"mass": 2}},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err == nil {
		t.Fatal("expected error for unknown driver field")
	}
	if len(results) != 1 {
		t.Errorf("expected the completed step, got %d results", len(results))
	}
}

func TestRange(t *testing.T) {
	got := Range(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if r := Range(3, 9, 1); len(r) != 1 || r[0] != 3 {
		t.Errorf("expected [3], got %v", r)
	}
}

func TestMonteCarlo(t *testing.T) {
	registry := experiment.NewRegistry()
	registry.Register("short", func() *config.Config {
		cfg := config.GetPreset("hair")
		cfg.Engine.Duration = 0.5
		return cfg
	})

	mc := &MonteCarloConfig{Rig: "short", Field: "length", Perturbation: 0.2, NumTrials: 4, Seed: 7}
	a, err := RunMonteCarlo(context.Background(), mc, registry)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(a))
	}
	for _, r := range a {
		if r.Value < 96 || r.Value > 144 {
			t.Errorf("trial %d: length %f outside ±20%% of 120", r.TrialID, r.Value)
		}
	}

	b, err := RunMonteCarlo(context.Background(), mc, registry)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Value != b[i].Value {
			t.Errorf("trial %d: same seed drew %f and %f", i, a[i].Value, b[i].Value)
		}
	}

	stable, unstable := MonteCarloStats(a)
	if stable+unstable != 4 {
		t.Errorf("expected 4 classified trials, got %d", stable+unstable)
	}

	if _, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{Rig: "short", Field: "length"}, registry); err == nil {
		t.Error("expected error for zero trials")
	}
}
