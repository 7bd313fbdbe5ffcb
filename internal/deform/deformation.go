// Package deform accumulates per-vertex offset layers for deformable parts.
package deform

import "github.com/nijigenerate/nicxlive-sub001/internal/veca"

// Deformation is one additive layer of per-vertex offsets.
type Deformation struct {
	VertexOffsets *veca.Array
}

// New returns a zero deformation of n points.
func New(n int) Deformation {
	return Deformation{VertexOffsets: veca.New(n)}
}

// FromPoints wraps a copy of pts.
func FromPoints(pts []veca.Vec2) Deformation {
	return Deformation{VertexOffsets: veca.FromPoints(pts)}
}

// Uniform returns n copies of off.
func Uniform(n int, off veca.Vec2) Deformation {
	d := New(n)
	d.VertexOffsets.Fill(off)
	return d
}

func (d Deformation) Len() int {
	if d.VertexOffsets == nil {
		return 0
	}
	return d.VertexOffsets.Len()
}

// Neg returns -d.
func (d Deformation) Neg() Deformation {
	return d.Scale(-1)
}

// Add returns d+o over the shorter of the two lengths.
func (d Deformation) Add(o Deformation) Deformation {
	return d.combine(o, 1)
}

// Sub returns d-o over the shorter of the two lengths.
func (d Deformation) Sub(o Deformation) Deformation {
	return d.combine(o, -1)
}

func (d Deformation) combine(o Deformation, sign float32) Deformation {
	n := min(d.Len(), o.Len())
	out := New(n)
	for i := 0; i < n; i++ {
		a, b := d.VertexOffsets.At(i), o.VertexOffsets.At(i)
		out.VertexOffsets.Set(i, veca.Vec2{X: a.X + sign*b.X, Y: a.Y + sign*b.Y})
	}
	return out
}

// Scale returns d*s.
func (d Deformation) Scale(s float32) Deformation {
	n := d.Len()
	out := New(n)
	for i := 0; i < n; i++ {
		out.VertexOffsets.Set(i, d.VertexOffsets.At(i).Scale(s))
	}
	return out
}

// Clone returns an independent copy.
func (d Deformation) Clone() Deformation {
	if d.VertexOffsets == nil {
		return New(0)
	}
	return Deformation{VertexOffsets: d.VertexOffsets.Clone()}
}
