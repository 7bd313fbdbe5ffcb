package physics

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/dynamo"
	"github.com/nijigenerate/nicxlive-sub001/internal/integrators"
)

// SpringPendulum hangs a bob from its anchor on a damped spring whose rest
// length is chosen so that the bob settles at Length below the anchor.
type SpringPendulum struct {
	params Params
	guard  guard

	anchor gg.Point
	bob    gg.Point
	dBob   gg.Point

	rk *integrators.RK4
}

func NewSpringPendulum(p Params, sink diag.Sink, node string) *SpringPendulum {
	sp := &SpringPendulum{
		params: p,
		guard:  guard{sink: sink, node: node},
	}
	sp.rk = integrators.NewRK4(sp)
	sp.rk.AddPoint(&sp.bob)
	sp.rk.AddPoint(&sp.dBob)
	return sp
}

func (s *SpringPendulum) Kind() Kind                { return KindSpringPendulum }
func (s *SpringPendulum) Anchor() gg.Point          { return s.anchor }
func (s *SpringPendulum) SetAnchor(anchor gg.Point) { s.anchor = anchor }
func (s *SpringPendulum) Output() gg.Point          { return s.bob }
func (s *SpringPendulum) Time() float64             { return s.rk.Time() }

// Velocity returns the bob velocity.
func (s *SpringPendulum) Velocity() gg.Point { return s.dBob }

// SetBob places the bob and zeroes its velocity.
func (s *SpringPendulum) SetBob(bob gg.Point) {
	s.bob = bob
	s.dBob = gg.Point{}
}

func (s *SpringPendulum) Reset() {
	s.bob = s.anchor.Add(gg.Pt(0, s.params.Length()))
	s.dBob = gg.Point{}
}

func (s *SpringPendulum) Tick(h float64) {
	if err := s.rk.Tick(h); err != nil {
		s.guard.unstable(err)
	}
	s.guard.flush()
}

// Derive implements dynamo.System over {bob.x, bob.y, vel.x, vel.y}.
func (s *SpringPendulum) Derive(x dynamo.State, t float64) dynamo.State {
	bob := gg.Pt(x[0], x[1])
	vel := gg.Pt(x[2], x[3])
	acc := s.acceleration(bob, vel)
	return dynamo.State{vel.X, vel.Y, acc.X, acc.Y}
}

func (s *SpringPendulum) acceleration(bob, vel gg.Point) gg.Point {
	g := &s.guard
	gravity := s.params.Gravity()
	length := s.params.Length()

	freq := g.check("spring.frequency", s.params.Frequency())
	kSqrt := g.check("spring.kSqrt", freq*2*math.Pi)
	k := g.check("spring.k", kSqrt*kSqrt)

	var rest float64
	if dynamo.NearZero(k) {
		g.fail("spring.restLength", k)
	} else {
		rest = g.check("spring.restLength", length-gravity/k)
	}

	off := bob.Sub(s.anchor)
	dist := off.Length()
	var n gg.Point
	if dist > 1e-6 {
		n = g.checkPoint("spring.offsetNorm", off.Div(dist))
	}

	force := gg.Pt(0, gravity)
	force = force.Sub(n.Mul((dist - rest) * k))
	force = g.checkPoint("spring.force", force)

	var critAngle float64
	if dynamo.NearZero(length) {
		g.fail("spring.critDampAngle", length)
	} else {
		critAngle = g.check("spring.critDampAngle", 2*math.Sqrt(gravity/length))
	}
	critLength := g.check("spring.critDampLength", 2*kSqrt)

	// Tangential and radial components of the velocity.
	t := gg.Pt(n.Y, -n.X)
	rot := g.checkPoint("spring.dampingRot", gg.Pt(vel.Dot(t), vel.Dot(n)))
	ddRot := g.checkPoint("spring.dampingRotAccel", gg.Pt(
		-rot.X*s.params.AngleDamping()*critAngle,
		-rot.Y*s.params.LengthDamping()*critLength,
	))
	damping := g.checkPoint("spring.damping", t.Mul(ddRot.X).Add(n.Mul(ddRot.Y)))

	return g.checkPoint("spring.acceleration", force.Add(damping))
}

// Energy is the mechanical energy per unit mass, with the spring at its
// rest length and the bob at the anchor height as the zero.
func (s *SpringPendulum) Energy() float64 {
	kSqrt := s.params.Frequency() * 2 * math.Pi
	k := kSqrt * kSqrt
	rest := s.params.Length()
	if k > 0 {
		rest -= s.params.Gravity() / k
	}
	stretch := s.bob.Distance(s.anchor) - rest
	kinetic := 0.5 * s.dBob.Dot(s.dBob)
	return kinetic + 0.5*k*stretch*stretch - s.params.Gravity()*(s.bob.Y-s.anchor.Y)
}
