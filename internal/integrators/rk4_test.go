package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/dynamo"
)

func harmonic() dynamo.System {
	return dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{x[1], -x[0]}
	})
}

func TestRK4Accuracy(t *testing.T) {
	pos, vel := 1.0, 0.0
	integ := NewRK4(harmonic())
	integ.AddVariable(&pos)
	integ.AddVariable(&vel)

	dt := 0.01
	steps := 100
	for i := 0; i < steps; i++ {
		if err := integ.Tick(dt); err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(pos-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", pos, expectedX)
	}
	if math.Abs(vel-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", vel, expectedV)
	}
	if math.Abs(integ.Time()-1.0) > 1e-9 {
		t.Errorf("expected time 1.0, got %f", integ.Time())
	}
}

func TestRK4RollsBackNonFiniteStep(t *testing.T) {
	p := gg.Pt(3, 4)
	extra := 7.0
	sys := dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{math.Inf(1), 0, 1}
	})
	integ := NewRK4(sys)
	integ.AddPoint(&p)
	integ.AddVariable(&extra)

	err := integ.Tick(0.01)
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Fatalf("expected ErrUnstable, got %v", err)
	}
	if p != gg.Pt(3, 4) || extra != 7 {
		t.Errorf("expected state restored, got p=%v extra=%f", p, extra)
	}
	if integ.Time() != 0 {
		t.Errorf("expected time unchanged, got %f", integ.Time())
	}
}

func TestRK4DimensionMismatch(t *testing.T) {
	v := 1.0
	integ := NewRK4(dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{}
	}))
	integ.AddVariable(&v)

	if err := integ.Tick(0.1); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if v != 1 {
		t.Errorf("expected variable unchanged, got %f", v)
	}
}

func TestAddPointOrdersCoordinates(t *testing.T) {
	p := gg.Pt(1, 2)
	integ := NewRK4(dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{1, -1}
	}))
	integ.AddPoint(&p)

	if err := integ.Tick(0.5); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if math.Abs(p.X-1.5) > 1e-12 || math.Abs(p.Y-1.5) > 1e-12 {
		t.Errorf("expected (1.5, 1.5), got %v", p)
	}
	if got := integ.State(); len(got) != 2 {
		t.Errorf("expected 2 state entries, got %d", len(got))
	}
}
