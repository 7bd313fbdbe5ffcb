package physics

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
	"github.com/nijigenerate/nicxlive-sub001/internal/dynamo"
	"github.com/nijigenerate/nicxlive-sub001/internal/integrators"
)

// Pendulum swings a bob of fixed length around its anchor. Angle zero
// hangs straight down (+Y).
type Pendulum struct {
	params Params
	guard  guard

	anchor gg.Point
	bob    gg.Point

	angle  float64
	dAngle float64

	rk *integrators.RK4
}

func NewPendulum(p Params, sink diag.Sink, node string) *Pendulum {
	pd := &Pendulum{
		params: p,
		guard:  guard{sink: sink, node: node},
	}
	pd.rk = integrators.NewRK4(pd)
	pd.rk.AddVariable(&pd.angle)
	pd.rk.AddVariable(&pd.dAngle)
	return pd
}

func (p *Pendulum) Kind() Kind                { return KindPendulum }
func (p *Pendulum) Anchor() gg.Point          { return p.anchor }
func (p *Pendulum) SetAnchor(anchor gg.Point) { p.anchor = anchor }
func (p *Pendulum) Output() gg.Point          { return p.bob }
func (p *Pendulum) Time() float64             { return p.rk.Time() }

// Angle returns the current angle in radians.
func (p *Pendulum) Angle() float64 { return p.angle }

// AngularVelocity returns the current angular velocity.
func (p *Pendulum) AngularVelocity() float64 { return p.dAngle }

// SetBob places the bob and zeroes its velocity.
func (p *Pendulum) SetBob(bob gg.Point) {
	p.bob = bob
	d := bob.Sub(p.anchor)
	p.angle = math.Atan2(-d.X, d.Y)
	p.dAngle = 0
}

func (p *Pendulum) Reset() {
	p.bob = p.anchor.Add(gg.Pt(0, p.params.Length()))
	p.angle = 0
	p.dAngle = 0
}

// Tick re-derives the angle from the bob so anchor movement is taken into
// account, integrates, then places the bob at the new angle.
func (p *Pendulum) Tick(h float64) {
	d := p.bob.Sub(p.anchor)
	if a := math.Atan2(-d.X, d.Y); isFinite(a) {
		p.angle = a
	}

	if err := p.rk.Tick(h); err != nil {
		p.guard.unstable(err)
	}
	p.guard.flush()

	length := p.params.Length()
	bob := p.anchor.Add(gg.Pt(-math.Sin(p.angle), math.Cos(p.angle)).Mul(length))
	if dynamo.FinitePoint(bob) {
		p.bob = bob
	} else {
		p.guard.fail("pendulum.bob", bob.X)
		p.guard.flush()
	}
}

// Derive implements dynamo.System over {angle, angularVelocity}.
func (p *Pendulum) Derive(x dynamo.State, t float64) dynamo.State {
	angle, dAngle := x[0], x[1]
	return dynamo.State{dAngle, p.acceleration(angle, dAngle)}
}

func (p *Pendulum) acceleration(angle, dAngle float64) float64 {
	g := p.params.Gravity()
	length := p.params.Length()
	if dynamo.NearZero(length) {
		p.guard.fail("pendulum.length", length)
		return 0
	}

	ratio := g / length
	if !isFinite(ratio) {
		p.guard.fail("pendulum.gravityOverLength", ratio)
		return 0
	}
	crit := 2 * math.Sqrt(ratio)
	if !isFinite(crit) {
		p.guard.fail("pendulum.criticalDamping", crit)
		return 0
	}

	dd := -ratio * math.Sin(angle)
	dd -= dAngle * p.params.AngleDamping() * crit
	if !isFinite(dd) {
		p.guard.fail("pendulum.dd", dd)
		return 0
	}
	return dd
}

// Energy is the mechanical energy per unit mass.
func (p *Pendulum) Energy() float64 {
	length := p.params.Length()
	v := length * p.dAngle
	return 0.5*v*v + p.params.Gravity()*length*(1-math.Cos(p.angle))
}

func isFinite(v float64) bool { return dynamo.Finite(v) }
