// Package integrators advances physics state with a fixed-step RK4 solver.
package integrators

import (
	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/dynamo"
)

// RK4 integrates a set of scalar variables owned elsewhere. Each registered
// variable is read before a step and written back after it; a step whose
// result is not finite leaves every variable at its previous value.
type RK4 struct {
	sys  dynamo.System
	vars []*float64
	t    float64

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
	snapshot       dynamo.State
}

func NewRK4(sys dynamo.System) *RK4 {
	return &RK4{sys: sys}
}

// AddVariable appends one scalar to the state vector.
func (r *RK4) AddVariable(v *float64) {
	r.vars = append(r.vars, v)
}

// AddPoint appends p.X and p.Y as two consecutive entries.
func (r *RK4) AddPoint(p *gg.Point) {
	r.vars = append(r.vars, &p.X, &p.Y)
}

func (r *RK4) Len() int { return len(r.vars) }

// Time is the simulated time accumulated by successful steps.
func (r *RK4) Time() float64 { return r.t }

// State returns a copy of the current variable values.
func (r *RK4) State() dynamo.State {
	x := make(dynamo.State, len(r.vars))
	for i, v := range r.vars {
		x[i] = *v
	}
	return x
}

func (r *RK4) store(x dynamo.State) {
	for i, v := range r.vars {
		*v = x[i]
	}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
		r.snapshot = make(dynamo.State, n)
	}
}

// Tick advances the variables by h. On a non-finite result the variables
// are restored, time does not advance and the returned error wraps
// dynamo.ErrUnstable.
func (r *RK4) Tick(h float64) error {
	n := len(r.vars)
	r.ensureScratch(n)
	for i, v := range r.vars {
		r.snapshot[i] = *v
	}

	next, err := r.Step(r.sys, r.snapshot, r.t, h)
	if err == nil && !next.IsValid() {
		err = dynamo.ErrUnstable
	}
	if err != nil {
		r.store(r.snapshot)
		return &dynamo.StepError{Time: r.t, Step: h, State: r.snapshot.Clone(), Wrapped: err}
	}

	r.store(next)
	r.t += h
	return nil
}

// Step computes one classic RK4 step from x without touching the
// registered variables.
func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	stage := func(dst dynamo.State, at dynamo.State, tt float64) error {
		d := dyn.Derive(at, tt)
		if len(d) != n {
			return dynamo.ErrDimensionMismatch
		}
		copy(dst, d)
		return nil
	}

	if err := stage(r.k1, x, t); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	if err := stage(r.k2, r.scratch, t+dt*0.5); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	if err := stage(r.k3, r.scratch, t+dt*0.5); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	if err := stage(r.k4, r.scratch, t+dt); err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result, nil
}
