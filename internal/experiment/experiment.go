// Package experiment runs a rig for a number of frames and records what
// its drivers and deformables did.
package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/metrics"
	"github.com/nijigenerate/nicxlive-sub001/internal/physics"
)

// Observer sees every frame as it is recorded.
type Observer interface {
	OnFrame(f metrics.Frame)
}

type ObserverFunc func(f metrics.Frame)

func (fn ObserverFunc) OnFrame(f metrics.Frame) { fn(f) }

type Experiment struct {
	rig       *config.Rig
	metrics   []metrics.Metric
	observers []Observer
	recorder  *diag.Recorder
}

// New wraps a built rig. Diagnostics raised by the puppet are recorded
// from here on.
func New(rig *config.Rig) *Experiment {
	e := &Experiment{rig: rig, recorder: &diag.Recorder{}}
	rig.Puppet.Subscribe(e.recorder)
	return e
}

func (e *Experiment) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }
func (e *Experiment) AddObserver(o Observer)     { e.observers = append(e.observers, o) }
func (e *Experiment) Rig() *config.Rig           { return e.rig }

// Run advances the puppet frames times by dt and returns the recording.
// On cancellation the partial result is returned with ctx.Err().
func (e *Experiment) Run(ctx context.Context, frames int, dt float64) (*Result, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}

	result := &Result{
		Name:    e.rig.Config.Name,
		Dt:      dt,
		Drivers: append([]string(nil), e.rig.Drivers...),
		Frames:  make([]metrics.Frame, 0, frames),
		Metrics: make(map[string]float64),
	}
	for _, m := range e.metrics {
		m.Reset()
	}
	e.recorder.Reset()

	p := e.rig.Puppet
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			result.Diagnostics = e.recorder.Events()
			return result, ctx.Err()
		default:
		}

		before := e.recorder.Len()
		p.Update(dt)

		f := e.sample(i)
		f.Diagnostics = e.recorder.Len() - before

		for _, m := range e.metrics {
			m.Observe(f)
		}
		for _, o := range e.observers {
			o.OnFrame(f)
		}
		result.Frames = append(result.Frames, f)
		result.StepsTaken++
	}

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Diagnostics = e.recorder.Events()
	return result, nil
}

// Sample reads the current state of the rig without advancing it.
func (e *Experiment) Sample() metrics.Frame {
	return e.sample(e.rig.Puppet.Frame())
}

func (e *Experiment) sample(index int) metrics.Frame {
	p := e.rig.Puppet
	f := metrics.Frame{Index: index, Time: p.Time()}

	for _, id := range p.Nodes() {
		if part, ok := p.Deformable(id); ok {
			f.MaxDeformation = math.Max(f.MaxDeformation, float64(part.Deformation.MaxAbs()))
		}
	}

	for _, name := range e.rig.Drivers {
		id, _ := p.Find(name)
		d, ok := p.Driver(id)
		if !ok || d.Model() == nil {
			continue
		}
		anchor, bob := d.Anchor(), d.Output()
		rel := bob.Sub(anchor)
		s := metrics.DriverSample{
			Name:   name,
			Anchor: anchor,
			Bob:    bob,
			Angle:  math.Atan2(-rel.X, rel.Y),
			Energy: math.NaN(),
		}
		s.Value, s.Pushed = d.Value()
		if h, ok := d.Model().(physics.Hamiltonian); ok {
			s.Energy = h.Energy()
		}
		f.Drivers = append(f.Drivers, s)
	}
	return f
}
