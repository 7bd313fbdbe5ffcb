package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
)

func newHair(t *testing.T) *Experiment {
	t.Helper()
	rig, err := config.Build(config.GetPreset("hair"))
	if err != nil {
		t.Fatal(err)
	}
	return New(rig)
}

func TestRun(t *testing.T) {
	exp := newHair(t)
	for _, m := range metrics.Defaults(50) {
		exp.AddMetric(m)
	}
	var seen int
	exp.AddObserver(ObserverFunc(func(metrics.Frame) { seen++ }))

	res, err := exp.Run(context.Background(), 180, 1.0/60)
	if err != nil {
		t.Fatal(err)
	}
	if res.StepsTaken != 180 || len(res.Frames) != 180 || seen != 180 {
		t.Errorf("expected 180 frames, got %d/%d/%d", res.StepsTaken, len(res.Frames), seen)
	}
	if res.Metrics["amplitude"] <= 0 {
		t.Error("moving head should swing the hair")
	}
	if res.Metrics["stability"] != 1 {
		t.Errorf("expected a stable run, got %f (%v)", res.Metrics["stability"], res.Diagnostics)
	}
	last := res.Frames[len(res.Frames)-1]
	if math.Abs(last.Time-3) > 1e-9 {
		t.Errorf("expected t=3, got %f", last.Time)
	}
}

func TestRunValidates(t *testing.T) {
	exp := newHair(t)
	if _, err := exp.Run(context.Background(), 10, 0); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := exp.Run(context.Background(), 0, 0.01); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestRunCancelled(t *testing.T) {
	exp := newHair(t)
	ctx, cancel := context.WithCancel(context.Background())
	exp.AddObserver(ObserverFunc(func(f metrics.Frame) {
		if f.Index == 9 {
			cancel()
		}
	}))

	res, err := exp.Run(ctx, 100, 0.01)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if res.StepsTaken != 10 {
		t.Errorf("expected 10 frames before cancel, got %d", res.StepsTaken)
	}
}

func TestResultTable(t *testing.T) {
	exp := newHair(t)
	res, err := exp.Run(context.Background(), 5, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	cols := res.Columns()
	if len(cols) != 3+6 {
		t.Fatalf("expected 9 columns, got %v", cols)
	}
	for _, row := range res.Rows() {
		if len(row) != len(cols) {
			t.Fatalf("row width %d != %d", len(row), len(cols))
		}
	}
	if got := res.Series("bangs_physics.value_x"); len(got) != 5 {
		t.Errorf("expected 5 samples, got %d", len(got))
	}
	if res.Series("nope") != nil {
		t.Error("unknown column should be nil")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if len(r.ListRigs()) != len(config.ListPresets()) {
		t.Errorf("registry should start with every preset")
	}
	if _, err := r.GetRig("missing"); err == nil {
		t.Error("expected error for unknown rig")
	}
	r.Register("custom", config.DefaultConfig)
	if _, err := r.Load("custom"); err != nil {
		t.Error(err)
	}
}

func TestSweep(t *testing.T) {
	apply, err := DriverField("angle_damping")
	if err != nil {
		t.Fatal(err)
	}
	s := &Sweep{
		Build: func() (*config.Config, error) {
			cfg := config.GetPreset("hair")
			cfg.Engine.Duration = 2
			return cfg, nil
		},
		Apply:  apply,
		Values: []float64{0.2, 2},
	}
	results, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	a, b := results[0].Metrics["amplitude"], results[1].Metrics["amplitude"]
	if a <= 0 || b <= 0 {
		t.Errorf("both runs should swing: %f %f", a, b)
	}
	if a == b {
		t.Error("damping should change the swing")
	}

	if _, err := DriverField("colour"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestSweepReportsBuildError(t *testing.T) {
	errMissing := errors.New("missing rig")
	s := &Sweep{
		Build: func() (*config.Config, error) {
			return nil, errMissing
		},
		Apply:  func(cfg *config.Config, v float64) { cfg.Engine.Duration = v },
		Values: []float64{1, 2, 3},
	}
	results, err := s.Run(context.Background())
	if !errors.Is(err, errMissing) {
		t.Fatalf("expected build error, got %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %d", len(results))
	}
}
