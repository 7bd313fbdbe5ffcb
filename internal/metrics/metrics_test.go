package metrics

import (
	"math"
	"testing"

	"github.com/gogpu/gg"
)

func frame(t float64, value gg.Point, angle, energy, deform float64) Frame {
	return Frame{
		Time:           t,
		MaxDeformation: deform,
		Drivers: []DriverSample{{
			Name:   "d",
			Value:  value,
			Pushed: true,
			Angle:  angle,
			Energy: energy,
		}},
	}
}

func TestAmplitude(t *testing.T) {
	m := NewAmplitude()
	m.Observe(frame(0, gg.Pt(0.2, 1), 0, 0, 0))
	m.Observe(frame(1, gg.Pt(-0.5, 1), 0, 0, 0))

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(50)
	m.Observe(frame(0, gg.Pt(0, 1), 0, 0, 10))
	m.Observe(frame(1, gg.Pt(0, 1), 0, 0, 80))
	m.Observe(frame(2, gg.Pt(math.NaN(), 1), 0, 0, 0))
	f := frame(3, gg.Pt(0, 1), 0, 0, 0)
	f.Diagnostics = 1
	m.Observe(f)

	if math.Abs(m.Value()-0.25) > 1e-12 {
		t.Errorf("expected 0.25, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 1 {
		t.Error("expected 1 after reset")
	}
}

func TestEnergyDecay(t *testing.T) {
	m := NewEnergyDecay()
	m.Observe(frame(0, gg.Point{}, 0, 10, 0))
	m.Observe(frame(1, gg.Point{}, 0, 40, 0))
	m.Observe(frame(2, gg.Point{}, 0, 4, 0))

	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected 0.1, got %f", m.Value())
	}

	m.Reset()
	m.Observe(frame(0, gg.Point{}, 0, math.NaN(), 0))
	if m.Value() != 0 {
		t.Errorf("NaN energies should be skipped, got %f", m.Value())
	}
}

func TestSettleTime(t *testing.T) {
	m := NewSettleTime(0.01)
	m.Observe(frame(0.5, gg.Point{}, 0.3, 0, 0))
	m.Observe(frame(1.0, gg.Point{}, 0.05, 0, 0))
	m.Observe(frame(1.5, gg.Point{}, 0.001, 0, 0))

	if m.Value() != 1.0 {
		t.Errorf("expected 1.0, got %f", m.Value())
	}
}

func TestDefaultsNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Defaults(50) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
}
