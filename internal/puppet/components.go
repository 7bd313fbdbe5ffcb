package puppet

import (
	"math"

	"github.com/gogpu/gg"
	"github.com/yohamta/donburi"

	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
	"github.com/nijigenerate/nicxlive-sub001/internal/driver"
	"github.com/nijigenerate/nicxlive-sub001/internal/param"
)

// Transform is a node's pose relative to its parent.
type Transform struct {
	Translation gg.Point
	Rotation    float64
	Scale       gg.Point
}

// IdentityTransform has unit scale and no offset.
func IdentityTransform() Transform {
	return Transform{Scale: gg.Pt(1, 1)}
}

// Matrix composes translation, rotation and scale in that order.
func (t Transform) Matrix() gg.Matrix {
	return gg.Translate(t.Translation.X, t.Translation.Y).
		Multiply(gg.Rotate(t.Rotation)).
		Multiply(gg.Scale(t.Scale.X, t.Scale.Y))
}

// NodeData is carried by every node.
type NodeData struct {
	Name   string
	Parent donburi.Entity
	Local  Transform

	local gg.Matrix
	world gg.Matrix
}

func (n *NodeData) Transform() gg.Matrix      { return n.world }
func (n *NodeData) TransformLocal() gg.Matrix { return n.local }

// DeformableData marks a node whose vertices take deformations.
type DeformableData struct {
	Part *deform.Deformable
}

// DriverData marks a node that runs a physics driver writing to Param.
type DriverData struct {
	Driver *driver.Driver
	Param  param.ID
}

var (
	Node       = donburi.NewComponentType[NodeData]()
	Deformable = donburi.NewComponentType[DeformableData]()
	Driver     = donburi.NewComponentType[DriverData]()
	Motion     = donburi.NewComponentType[MotionData]()
)

// NoParam is the parameter id of a driver with no target.
const NoParam param.ID = -1

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
