// Package export renders rigs and recorded runs to image formats.
package export

import (
	"errors"
	"math"
	"sort"

	"github.com/gogpu/gg"

	"github.com/nijigenerate/nicxlive-sub001/internal/config"
)

var ErrEmptyScene = errors.New("export: nothing to draw")

// Part is one deformable mesh in puppet space.
type Part struct {
	Name   string
	Points []gg.Point
	Edges  [][2]int
}

// Pendulum is a driver's anchor and bob in puppet space.
type Pendulum struct {
	Name   string
	Anchor gg.Point
	Bob    gg.Point
}

// Scene is a frozen copy of what a rig looks like at one frame.
type Scene struct {
	Parts     []Part
	Pendulums []Pendulum
}

// Capture copies the current deformed meshes and driver bobs of rig.
func Capture(rig *config.Rig) (*Scene, error) {
	names := make([]string, 0, len(rig.Meshes))
	for name := range rig.Meshes {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Scene{}
	for _, name := range names {
		id, ok := rig.Puppet.Find(name)
		if !ok {
			continue
		}
		pts, err := rig.Puppet.WorldPoints(id)
		if err != nil {
			return nil, err
		}
		s.Parts = append(s.Parts, Part{Name: name, Points: pts, Edges: rig.Meshes[name].Edges})
	}
	for _, name := range rig.Drivers {
		id, _ := rig.Puppet.Find(name)
		d, ok := rig.Puppet.Driver(id)
		if !ok {
			continue
		}
		s.Pendulums = append(s.Pendulums, Pendulum{Name: name, Anchor: d.Anchor(), Bob: d.Output()})
	}
	return s, nil
}

// Bounds returns the smallest box holding every point of the scene.
func (s *Scene) Bounds() (lo, hi gg.Point, ok bool) {
	lo = gg.Pt(math.Inf(1), math.Inf(1))
	hi = gg.Pt(math.Inf(-1), math.Inf(-1))
	grow := func(p gg.Point) {
		lo = gg.Pt(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y))
		hi = gg.Pt(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y))
		ok = true
	}
	for _, part := range s.Parts {
		for _, p := range part.Points {
			grow(p)
		}
	}
	for _, pd := range s.Pendulums {
		grow(pd.Anchor)
		grow(pd.Bob)
	}
	return lo, hi, ok
}

// fit maps the box lo..hi into a width×height image with a 10% margin,
// keeping the aspect ratio.
func fit(lo, hi gg.Point, width, height int) gg.Matrix {
	w, h := hi.X-lo.X, hi.Y-lo.Y
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	s := 0.8 * math.Min(float64(width)/w, float64(height)/h)
	c := lo.Add(hi).Mul(0.5)
	return gg.Translate(float64(width)/2, float64(height)/2).
		Multiply(gg.Scale(s, s)).
		Multiply(gg.Translate(-c.X, -c.Y))
}
