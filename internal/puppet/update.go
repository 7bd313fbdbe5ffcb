package puppet

import (
	"github.com/nijigenerate/nicxlive-sub001/internal/deform"
)

// Update runs one frame of dt seconds:
//
//  1. motion tracks move their nodes and world transforms are refreshed
//  2. begin: deformations are zeroed, driver offsets reset and anchors
//     captured, parameter offsets dropped
//  3. pre-process: filters run, parameters not owned by a driver apply
//     their bindings, drivers step their models and write their parameters,
//     then deformations are sized to their vertices
//  4. post-process stages 0 to PostStages-1
//  5. finalize, then queued diagnostics are delivered
func (p *Puppet) Update(dt float64) {
	if !finite(dt) || dt < 0 {
		dt = 0
	}
	p.frame++
	p.time += dt

	p.advanceMotion(float32(dt))
	p.refreshTransforms()

	p.begin()
	p.preProcess(dt)
	for stage := 0; stage < PostStages; stage++ {
		p.eachDeformable(func(d *deform.Deformable) { d.PostProcess(stage) })
	}
	p.eachDeformable((*deform.Deformable).Finalize)

	DiagnosticEvent.ProcessEvents(p.world)
}

func (p *Puppet) advanceMotion(dt float32) {
	for _, id := range p.order {
		e := p.world.Entry(id)
		if !e.HasComponent(Motion) {
			continue
		}
		n := Node.Get(e)
		for _, tr := range Motion.Get(e).Tracks {
			if tr.Done() {
				continue
			}
			v := float64(tr.advance(dt))
			switch tr.Axis {
			case AxisX:
				n.Local.Translation.X = v
			case AxisY:
				n.Local.Translation.Y = v
			}
		}
	}
}

func (p *Puppet) begin() {
	p.eachDeformable((*deform.Deformable).Begin)
	for _, prm := range p.params {
		prm.BeginFrame()
	}
	p.eachDriver(func(id NodeID, dd *DriverData) {
		dd.Driver.Begin()
		dd.Driver.UpdateAnchor(Node.Get(p.world.Entry(id)))
	})
}

func (p *Puppet) preProcess(dt float64) {
	p.eachDeformable((*deform.Deformable).PreProcess)

	driven := make(map[int]bool)
	p.eachDriver(func(_ NodeID, dd *DriverData) {
		if dd.Param != NoParam {
			driven[int(dd.Param)] = true
		}
	})
	for i, prm := range p.params {
		if !driven[i] {
			prm.Update()
		}
	}

	p.eachDriver(func(id NodeID, dd *DriverData) {
		target, ok := p.Param(dd.Param)
		if !ok {
			dd.Driver.UpdateDriver(dt, Node.Get(p.world.Entry(id)), nil)
			return
		}
		dd.Driver.UpdateDriver(dt, Node.Get(p.world.Entry(id)), target)
	})

	p.eachDeformable((*deform.Deformable).Normalize)
}
