// Package param implements animation parameters: a 1D or 2D value that
// drives bindings on puppet parts.
package param

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gogpu/gg"
)

// ID indexes a parameter in its puppet's parameter table.
type ID int

// MergeMode decides how a pushed offset combines with the other writes of
// the same frame.
type MergeMode int

const (
	Additive MergeMode = iota
	Weighted
	Multiplicative
	Forced
	Passthrough
)

var ErrUnknownMergeMode = errors.New("param: unknown merge mode")

var mergeModeNames = []string{"additive", "weighted", "multiplicative", "forced", "passthrough"}

func (m MergeMode) String() string {
	if int(m) >= 0 && int(m) < len(mergeModeNames) {
		return mergeModeNames[m]
	}
	return fmt.Sprintf("merge(%d)", int(m))
}

func ParseMergeMode(s string) (MergeMode, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for i, name := range mergeModeNames {
		if name == n {
			return MergeMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMergeMode, s)
}

// Binding receives the keypoint cell and the fractional position inside it
// every time the parameter updates.
type Binding interface {
	Apply(left [2]int, sub gg.Point)
}

// Parameter is a named 1D or 2D control value.
type Parameter struct {
	ID     ID
	Name   string
	IsVec2 bool
	Active bool

	// Value is the authored value; pushed offsets never modify it.
	Value    gg.Point
	Min, Max gg.Point
	Defaults gg.Point
	// MergeMode resolves Passthrough pushes.
	MergeMode MergeMode
	// AxisPoints are the normalized keypoint positions per axis.
	AxisPoints [2][]float64

	offset    gg.Point
	scale     gg.Point
	forced    bool
	forcedVal gg.Point
	pushed    int

	latest   gg.Point
	previous gg.Point

	bindings []Binding
}

// New returns an active parameter ranging over [0,1] with keypoints at
// both ends of each axis.
func New(name string, vec2 bool) *Parameter {
	p := &Parameter{
		Name:       name,
		IsVec2:     vec2,
		Active:     true,
		Min:        gg.Pt(0, 0),
		Max:        gg.Pt(1, 1),
		MergeMode:  Additive,
		AxisPoints: [2][]float64{{0, 1}, {0, 1}},
		scale:      gg.Pt(1, 1),
	}
	if !vec2 {
		p.AxisPoints[1] = []float64{0}
	}
	return p
}

// SetAxisPoints replaces the keypoints of axis, sorted.
func (p *Parameter) SetAxisPoints(axis int, pts []float64) {
	c := append([]float64(nil), pts...)
	sort.Float64s(c)
	p.AxisPoints[axis&1] = c
}

// AxisPointCount returns how many keypoints axis has; a 1D parameter has a
// single Y keypoint.
func (p *Parameter) AxisPointCount(axis int) int {
	if axis != 0 && !p.IsVec2 {
		return 1
	}
	return len(p.AxisPoints[axis&1])
}

// BeginFrame drops the offsets pushed during the previous frame.
func (p *Parameter) BeginFrame() {
	p.offset = gg.Point{}
	p.scale = gg.Pt(1, 1)
	p.forced = false
	p.forcedVal = gg.Point{}
	p.pushed = 0
}

// PushOffset records a contribution for this frame. A Forced push overrides
// every other contribution of the frame regardless of order; Passthrough
// uses the parameter's own MergeMode.
func (p *Parameter) PushOffset(v gg.Point, mode MergeMode) {
	if mode == Passthrough {
		mode = p.MergeMode
	}
	switch mode {
	case Forced, Passthrough:
		p.forced = true
		p.forcedVal = v
	case Weighted:
		if p.pushed == 0 {
			p.offset = v
		} else {
			p.offset = p.offset.Add(v).Mul(0.5)
		}
	case Multiplicative:
		p.scale = gg.Pt(p.scale.X*v.X, p.scale.Y*v.Y)
	default:
		p.offset = p.offset.Add(v)
	}
	p.pushed++
}

// Forced reports whether a forced write happened this frame.
func (p *Parameter) Forced() bool { return p.forced }

// Latest returns the value computed by the last Update.
func (p *Parameter) Latest() gg.Point { return p.latest }

// Previous returns the value computed by the Update before the last.
func (p *Parameter) Previous() gg.Point { return p.previous }

// Internal returns the value Update would compute now.
func (p *Parameter) Internal() gg.Point {
	if p.forced {
		return p.forcedVal
	}
	v := p.Value.Add(p.offset)
	return gg.Pt(v.X*p.scale.X, v.Y*p.scale.Y)
}

// Normalized maps v into [0,1] per axis using Min and Max.
func (p *Parameter) Normalized(v gg.Point) gg.Point {
	return gg.Pt(norm(v.X, p.Min.X, p.Max.X), norm(v.Y, p.Min.Y, p.Max.Y))
}

func norm(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// SetNormalized sets Value from a normalized position.
func (p *Parameter) SetNormalized(n gg.Point) {
	p.Value = gg.Pt(n.X*(p.Max.X-p.Min.X)+p.Min.X, n.Y*(p.Max.Y-p.Min.Y)+p.Min.Y)
}

// FindOffset locates the keypoint cell containing a normalized position
// and the clamped fractional offset inside it.
func (p *Parameter) FindOffset(n gg.Point) (left [2]int, sub gg.Point) {
	left[0], sub.X = findAxis(p.AxisPoints[0], n.X)
	if p.IsVec2 {
		left[1], sub.Y = findAxis(p.AxisPoints[1], n.Y)
	}
	return left, sub
}

func findAxis(pts []float64, v float64) (int, float64) {
	if len(pts) <= 1 {
		return 0, 0
	}
	left := 0
	for i := 0; i+1 < len(pts); i++ {
		left = i
		if v < pts[i+1] {
			break
		}
	}
	right := min(left+1, len(pts)-1)
	denom := pts[right] - pts[left]
	if denom == 0 {
		return left, 0
	}
	return left, clamp01((v - pts[left]) / denom)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Bind adds a binding applied on every Update.
func (p *Parameter) Bind(b Binding) {
	p.bindings = append(p.bindings, b)
}

func (p *Parameter) Bindings() []Binding { return p.bindings }

// Update recomputes the internal value from the authored value and this
// frame's pushes, then applies every binding.
func (p *Parameter) Update() {
	if !p.Active {
		return
	}
	p.previous = p.latest
	p.latest = p.Internal()

	left, sub := p.FindOffset(p.Normalized(p.latest))
	for _, b := range p.bindings {
		b.Apply(left, sub)
	}
}
