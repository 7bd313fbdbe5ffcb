package dynamo

import (
	"math"

	"github.com/gogpu/gg"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if !Finite(v) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is the right-hand side of an ODE. Derive returns dX/dt at x.
type System interface {
	Derive(x State, t float64) State
}

// SystemFunc adapts a function to System.
type SystemFunc func(x State, t float64) State

func (f SystemFunc) Derive(x State, t float64) State { return f(x, t) }

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FinitePoint reports whether both coordinates of p are finite.
func FinitePoint(p gg.Point) bool {
	return Finite(p.X) && Finite(p.Y)
}

// NearZero reports whether |v| is within machine epsilon of zero.
func NearZero(v float64) bool {
	return math.Abs(v) <= Epsilon
}

// Epsilon is the float64 machine epsilon.
const Epsilon = 2.220446049250313e-16
