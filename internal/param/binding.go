package param

import (
	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
)

// InterpolateMode selects how bindings blend between keypoints.
type InterpolateMode int

const (
	Linear InterpolateMode = iota
	Nearest
	Step
)

// grid holds one value per keypoint.
type grid[T any] struct {
	values [][]T
	lerp   func(a, b T, t float64) T
	mode   InterpolateMode
	vec2   bool
}

func newGrid[T any](p *Parameter, lerp func(a, b T, t float64) T) grid[T] {
	nx, ny := max(1, p.AxisPointCount(0)), max(1, p.AxisPointCount(1))
	values := make([][]T, nx)
	for i := range values {
		values[i] = make([]T, ny)
	}
	return grid[T]{values: values, lerp: lerp, vec2: p.IsVec2}
}

func (g *grid[T]) set(x, y int, v T) bool {
	if x < 0 || x >= len(g.values) || y < 0 || y >= len(g.values[x]) {
		return false
	}
	g.values[x][y] = v
	return true
}

func (g *grid[T]) sample(x, y int) T {
	x = min(x, len(g.values)-1)
	y = min(y, len(g.values[x])-1)
	return g.values[x][y]
}

func (g *grid[T]) interpolate(left [2]int, sub gg.Point) T {
	lx, ly := left[0], left[1]
	switch g.mode {
	case Step:
		return g.sample(lx, ly)
	case Nearest:
		if sub.X >= 0.5 {
			lx++
		}
		if g.vec2 && sub.Y >= 0.5 {
			ly++
		}
		return g.sample(lx, ly)
	}

	tx := clamp01(sub.X)
	if !g.vec2 {
		return g.lerp(g.sample(lx, 0), g.sample(lx+1, 0), tx)
	}
	ty := clamp01(sub.Y)
	p0 := g.lerp(g.sample(lx, ly), g.sample(lx, ly+1), ty)
	p1 := g.lerp(g.sample(lx+1, ly), g.sample(lx+1, ly+1), ty)
	return g.lerp(p0, p1, tx)
}

// Pusher is the part a deformation binding writes to.
type Pusher interface {
	Push(delta deform.Deformation) bool
}

// DeformationBinding pushes an interpolated per-keypoint deformation onto
// its target's stack.
type DeformationBinding struct {
	Target Pusher
	grid   grid[deform.Deformation]
}

// NewDeformationBinding creates a binding of n-point zero deformations at
// every keypoint of p.
func NewDeformationBinding(p *Parameter, target Pusher, n int) *DeformationBinding {
	b := &DeformationBinding{
		Target: target,
		grid:   newGrid(p, lerpDeformation),
	}
	for x := range b.grid.values {
		for y := range b.grid.values[x] {
			b.grid.values[x][y] = deform.New(n)
		}
	}
	return b
}

func (b *DeformationBinding) SetInterpolation(m InterpolateMode) { b.grid.mode = m }

// SetValue sets the deformation at keypoint (x, y).
func (b *DeformationBinding) SetValue(x, y int, d deform.Deformation) bool {
	return b.grid.set(x, y, d)
}

// Sample returns the deformation at a keypoint cell and offset.
func (b *DeformationBinding) Sample(left [2]int, sub gg.Point) deform.Deformation {
	return b.grid.interpolate(left, sub)
}

func (b *DeformationBinding) Apply(left [2]int, sub gg.Point) {
	b.Target.Push(b.grid.interpolate(left, sub))
}

func lerpDeformation(a, c deform.Deformation, t float64) deform.Deformation {
	return a.Scale(float32(1 - t)).Add(c.Scale(float32(t)))
}

// ValueBinding interpolates a scalar per keypoint and hands it to Set.
type ValueBinding struct {
	Set  func(v float64)
	grid grid[float64]
}

// NewValueBinding creates a binding with def at every keypoint.
func NewValueBinding(p *Parameter, def float64, set func(float64)) *ValueBinding {
	b := &ValueBinding{
		Set: set,
		grid: newGrid(p, func(a, c float64, t float64) float64 {
			return a + (c-a)*t
		}),
	}
	for x := range b.grid.values {
		for y := range b.grid.values[x] {
			b.grid.values[x][y] = def
		}
	}
	return b
}

func (b *ValueBinding) SetInterpolation(m InterpolateMode) { b.grid.mode = m }

func (b *ValueBinding) SetValue(x, y int, v float64) bool {
	return b.grid.set(x, y, v)
}

func (b *ValueBinding) Apply(left [2]int, sub gg.Point) {
	b.Set(b.grid.interpolate(left, sub))
}
