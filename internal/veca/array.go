// Package veca implements a structure-of-arrays container of 2D points.
//
// An [Array] keeps its x and y coordinates in two parallel float32 lanes. It
// either owns those lanes or is bound as a view into a region of a larger
// block, in which case writes through the array land directly in the block.
package veca

import "math"

// Vec2 is a single point read from or written to an Array.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(float64(v.X), float64(v.Y))
}

// Array is a growable list of 2D points stored as separate x and y lanes.
// The zero value is an empty, owning array.
type Array struct {
	x, y []float32

	host *Array
	off  int
}

// New returns an owning array of n zeroed points.
func New(n int) *Array {
	a := &Array{}
	a.Resize(n)
	return a
}

// FromPoints returns an owning array holding a copy of pts.
func FromPoints(pts []Vec2) *Array {
	a := New(len(pts))
	for i, p := range pts {
		a.x[i] = p.X
		a.y[i] = p.Y
	}
	return a
}

func (a *Array) Len() int { return len(a.x) }

func (a *Array) X(i int) float32 { return a.x[i] }
func (a *Array) Y(i int) float32 { return a.y[i] }

func (a *Array) SetX(i int, v float32) { a.x[i] = v }
func (a *Array) SetY(i int, v float32) { a.y[i] = v }

// At returns point i.
func (a *Array) At(i int) Vec2 { return Vec2{a.x[i], a.y[i]} }

// Set overwrites point i.
func (a *Array) Set(i int, v Vec2) {
	a.x[i] = v.X
	a.y[i] = v.Y
}

// Lanes exposes the underlying x and y slices. For a bound array these alias
// the host block.
func (a *Array) Lanes() (xs, ys []float32) { return a.x, a.y }

// Resize changes the length to n. Points beyond the old length are zero.
// A bound array that grows beyond its view is detached into owned storage;
// shrinking keeps the view.
func (a *Array) Resize(n int) {
	if n < 0 {
		n = 0
	}
	cur := len(a.x)
	if n == cur {
		return
	}
	if n < cur {
		a.x = a.x[:n]
		a.y = a.y[:n]
		return
	}
	if n <= cap(a.x) && n <= cap(a.y) {
		a.x = a.x[:n]
		a.y = a.y[:n]
		clear(a.x[cur:])
		clear(a.y[cur:])
		return
	}
	if a.host != nil {
		a.detach(n)
		return
	}
	nx := make([]float32, n, grow(cap(a.x), n))
	ny := make([]float32, n, grow(cap(a.y), n))
	copy(nx, a.x)
	copy(ny, a.y)
	a.x, a.y = nx, ny
}

func grow(have, need int) int {
	c := have * 2
	if c < need {
		c = need
	}
	return c
}

// detach copies the current contents into fresh owned lanes of length n.
func (a *Array) detach(n int) {
	nx := make([]float32, n)
	ny := make([]float32, n)
	copy(nx, a.x)
	copy(ny, a.y)
	a.x, a.y = nx, ny
	a.host = nil
	a.off = 0
}

// Own converts a bound array into an owning copy of its current contents.
// It is a no-op for arrays that already own their lanes.
func (a *Array) Own() {
	if a.host == nil {
		return
	}
	a.detach(len(a.x))
}

// Fill sets every point to v.
func (a *Array) Fill(v Vec2) {
	for i := range a.x {
		a.x[i] = v.X
		a.y[i] = v.Y
	}
}

// Zero sets every point to the origin.
func (a *Array) Zero() {
	clear(a.x)
	clear(a.y)
}

// Clear empties the array and releases any binding.
func (a *Array) Clear() {
	a.x = nil
	a.y = nil
	a.host = nil
	a.off = 0
}

// BindExternalStorage makes a a non-owning view of block[offset:offset+length].
// A zero length clears the array instead. The caller guarantees the region is
// inside block.
func (a *Array) BindExternalStorage(block *Array, offset, length int) {
	if length == 0 {
		a.Clear()
		return
	}
	end := offset + length
	a.x = block.x[offset:end:end]
	a.y = block.y[offset:end:end]
	a.host = block
	a.off = offset
}

// IsBound reports whether a is currently a view into some block.
func (a *Array) IsBound() bool { return a.host != nil }

// BoundTo reports whether a is a view into block starting at offset with
// its current length still inside the block.
func (a *Array) BoundTo(block *Array, offset int) bool {
	if a.host != block || a.off != offset {
		return false
	}
	if len(a.x) == 0 {
		return true
	}
	return &a.x[0] == &block.x[offset] && &a.y[0] == &block.y[offset]
}

// Clone returns an owning copy of a.
func (a *Array) Clone() *Array {
	c := &Array{
		x: make([]float32, len(a.x)),
		y: make([]float32, len(a.y)),
	}
	copy(c.x, a.x)
	copy(c.y, a.y)
	return c
}

// CopyFrom resizes a to src's length and copies src into it. Writes go
// through to the host block when a is bound and large enough.
func (a *Array) CopyFrom(src *Array) {
	a.Resize(src.Len())
	copy(a.x, src.x)
	copy(a.y, src.y)
}

// CopyInto writes min(len) points of a into dst at offset.
func (a *Array) CopyInto(dst *Array, offset, length int) int {
	n := min(length, len(a.x))
	copy(dst.x[offset:offset+n], a.x[:n])
	copy(dst.y[offset:offset+n], a.y[:n])
	return n
}

// AddInPlace adds o to a pointwise over the shorter of the two lengths.
func (a *Array) AddInPlace(o *Array) {
	n := min(len(a.x), len(o.x))
	for i := 0; i < n; i++ {
		a.x[i] += o.x[i]
		a.y[i] += o.y[i]
	}
}

// ScaleInPlace multiplies every coordinate by s.
func (a *Array) ScaleInPlace(s float32) {
	for i := range a.x {
		a.x[i] *= s
		a.y[i] *= s
	}
}

// MaxAbs returns the largest absolute coordinate across both lanes.
func (a *Array) MaxAbs() float32 {
	var m float32
	for i := range a.x {
		if v := abs32(a.x[i]); v > m {
			m = v
		}
		if v := abs32(a.y[i]); v > m {
			m = v
		}
	}
	return m
}

// Points returns a copy of the contents as a slice.
func (a *Array) Points() []Vec2 {
	out := make([]Vec2, len(a.x))
	for i := range out {
		out[i] = Vec2{a.x[i], a.y[i]}
	}
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
