package deform

import (
	"github.com/nijigenerate/nicxlive-sub001/internal/diag"
)

// Stack accumulates pushes into its owner's deformation array. It keeps no
// frame state of its own.
type Stack struct {
	owner *Deformable
}

// PreUpdate zeroes the owner's deformation, sized to its vertex count.
func (s *Stack) PreUpdate() {
	s.owner.normalize()
	s.owner.Deformation.Zero()
}

// Push adds delta to the owner's deformation. A delta whose length differs
// from the deformation is ignored and Push returns false.
func (s *Stack) Push(delta Deformation) bool {
	o := s.owner
	if delta.Len() != o.Deformation.Len() {
		return false
	}
	o.Deformation.AddInPlace(delta.VertexOffsets)
	o.markDeformDirty()
	o.guard("push")
	for _, fn := range o.observers {
		fn(o, delta)
	}
	return true
}

func (d *Deformable) guard(tag string) {
	if d.opts.MagnitudeLimit <= 0 {
		return
	}
	if m := d.Deformation.MaxAbs(); m > d.opts.MagnitudeLimit {
		diag.Or(d.opts.Sink).Report(diag.Event{
			Kind:  diag.KindLargeDeformation,
			Tag:   tag,
			Node:  d.Name,
			Value: float64(m),
		})
	}
}
